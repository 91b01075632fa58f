package approvalmock

import (
	"context"
	"errors"
	"testing"

	domain "lending-backend/internal/domain/approval"
)

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	want := &domain.Approval{ApprovalID: "AP-1", LoanID: 9}

	m := &Repo{
		GetByLoanIDFn: func(_ context.Context, id uint64) (*domain.Approval, error) {
			if id != 9 {
				t.Fatalf("loan id mismatch: %d", id)
			}
			return want, nil
		},
		GetByApprovalIDFn: func(_ context.Context, approvalID string) (*domain.Approval, error) {
			return want, nil
		},
	}
	if got, err := m.GetByLoanID(ctx, 9); err != nil || got != want {
		t.Fatalf("GetByLoanID: %v %v", got, err)
	}
	if got, err := m.GetByApprovalID(ctx, "AP-1"); err != nil || got != want {
		t.Fatalf("GetByApprovalID: %v %v", got, err)
	}
}

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.Approval{}); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if _, err := m.GetByLoanID(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByLoanID default: want ErrNotFound, got %v", err)
	}
	if _, err := m.GetByApprovalID(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByApprovalID default: want ErrNotFound, got %v", err)
	}
}
