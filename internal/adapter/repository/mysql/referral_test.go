package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	refDomain "lending-backend/internal/domain/referral"

	"github.com/shopspring/decimal"
)

func TestReferral_Stats(t *testing.T) {
	db := openTestDB(t)
	repo := NewReferralRepository(db)
	ctx := context.Background()
	referrer := makeUser(t, db, "ref@example.com")

	now := time.Now().UTC()
	statuses := []refDomain.Status{refDomain.StatusPending, refDomain.StatusQualified, refDomain.StatusRewarded}
	for i, st := range statuses {
		friend := makeUser(t, db, string(rune('a'+i))+"@example.com")
		r := &refDomain.Referral{
			ReferrerID: referrer.ID,
			ReferredID: friend.ID,
			Code:       referrer.ReferralCode,
			Status:     st,
		}
		if st == refDomain.StatusRewarded {
			r.RewardAmount = decimal.NewFromInt(50)
			r.QualifiedAt, r.RewardedAt = &now, &now
		}
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	st, err := repo.Stats(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Invited != 3 || st.Qualified != 2 || st.Rewarded != 1 {
		t.Errorf("stats = %+v", st)
	}
	if !st.TotalEarned.Equal(decimal.NewFromInt(50)) {
		t.Errorf("TotalEarned = %s", st.TotalEarned)
	}

	list, err := repo.ListByReferrer(ctx, referrer.ID)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByReferrer: %v len=%d", err, len(list))
	}
	q, total, err := repo.ListByStatus(ctx, refDomain.StatusQualified, 0, 0)
	if err != nil || total != 1 || len(q) != 1 {
		t.Fatalf("ListByStatus: %v total=%d", err, total)
	}
}

func TestReferral_OnePerReferredUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewReferralRepository(db)
	ctx := context.Background()
	a := makeUser(t, db, "a@example.com")
	b := makeUser(t, db, "b@example.com")
	c := makeUser(t, db, "c@example.com")

	if err := repo.Create(ctx, &refDomain.Referral{ReferrerID: a.ID, ReferredID: c.ID, Code: a.ReferralCode, Status: refDomain.StatusPending}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &refDomain.Referral{ReferrerID: b.ID, ReferredID: c.ID, Code: b.ReferralCode, Status: refDomain.StatusPending}); err == nil {
		t.Fatal("a user can only be referred once")
	}
	if _, err := repo.GetByReferredID(ctx, a.ID); !errors.Is(err, refDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
