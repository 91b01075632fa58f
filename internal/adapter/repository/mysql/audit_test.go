package mysql

import (
	"context"
	"testing"

	auditDomain "lending-backend/internal/domain/audit"
)

func TestAudit_ListFilters(t *testing.T) {
	repo := NewAuditRepository(openTestDB(t))
	ctx := context.Background()
	actor := uint64(7)

	logs := []auditDomain.Log{
		{ActorID: &actor, Action: auditDomain.ActionLoanApproved, EntityType: "loan", EntityID: "L1"},
		{ActorID: &actor, Action: auditDomain.ActionPaymentConfirmed, EntityType: "payment", EntityID: "P1"},
		{Action: auditDomain.ActionLoanRejected, EntityType: "loan", EntityID: "L2"},
	}
	for i := range logs {
		if err := repo.Create(ctx, &logs[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter auditDomain.Filter
		want   int64
	}{
		{"all", auditDomain.Filter{}, 3},
		{"entity type", auditDomain.Filter{EntityType: "loan"}, 2},
		{"entity", auditDomain.Filter{EntityType: "loan", EntityID: "L2"}, 1},
		{"actor", auditDomain.Filter{ActorID: actor}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	items, _, _ := repo.List(ctx, auditDomain.Filter{})
	if items[0].EntityID != "L2" {
		t.Errorf("want newest first, got %s", items[0].EntityID)
	}
}
