package referral

import (
	"context"
	"errors"
	"testing"
	"time"

	"lending-backend/internal/adapter/repository/mysql"
	domainAudit "lending-backend/internal/domain/audit"
	domain "lending-backend/internal/domain/referral"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/testutil/testdb"
	"lending-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, email string) *domainUser.User {
	t.Helper()
	u := &domainUser.User{
		UserID: id.NewID32(), Email: email, PasswordHash: "x", Role: domainUser.RoleBorrower,
		ReferralCode: id.NewCode(8), IsActive: true,
	}
	if err := mysql.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestMaskEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"alice@example.com", "a***@example.com"},
		{"b@x.io", "b***@x.io"},
		{"broken", "***"},
	}
	for _, tt := range tests {
		if got := maskEmail(tt.in); got != tt.want {
			t.Errorf("maskEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUsecase_MineAndReward(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	refs := mysql.NewReferralRepository(db)
	uc := NewUsecase(refs, mysql.NewUserRepository(db), mysql.NewGormUoW(db))

	referrer := newUser(t, db, "referrer@example.com")
	alice := newUser(t, db, "alice@example.com")
	bob := newUser(t, db, "bob@example.com")

	qualifiedAt := time.Now().UTC()
	qualified := &domain.Referral{ReferrerID: referrer.ID, ReferredID: alice.ID, Code: referrer.ReferralCode,
		Status: domain.StatusQualified, RewardAmount: decimal.NewFromInt(50), QualifiedAt: &qualifiedAt}
	pending := &domain.Referral{ReferrerID: referrer.ID, ReferredID: bob.ID, Code: referrer.ReferralCode, Status: domain.StatusPending}
	for _, r := range []*domain.Referral{qualified, pending} {
		if err := refs.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	mine, err := uc.Mine(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if mine.Code != referrer.ReferralCode || mine.Stats.Invited != 2 || mine.Stats.Qualified != 1 || len(mine.Referrals) != 2 {
		t.Fatalf("summary = %+v", mine)
	}
	for _, r := range mine.Referrals {
		if r.Referred != "a***@example.com" && r.Referred != "b***@example.com" {
			t.Fatalf("referred label not masked: %q", r.Referred)
		}
	}

	admin := domainUser.Principal{ID: 999, Role: domainUser.RoleAdmin, IP: "10.1.1.1"}
	if _, err := uc.Reward(ctx, admin, RewardInput{ReferralID: pending.ID}); !errors.Is(err, domain.ErrNotQualified) {
		t.Fatalf("pending: want ErrNotQualified, got %v", err)
	}
	got, err := uc.Reward(ctx, admin, RewardInput{ReferralID: qualified.ID})
	if err != nil {
		t.Fatalf("Reward: %v", err)
	}
	if got.Status != "rewarded" || got.RewardedAt == nil || got.Referred != "alice@example.com" {
		t.Fatalf("rewarded = %+v", got)
	}
	if _, err := uc.Reward(ctx, admin, RewardInput{ReferralID: qualified.ID}); !errors.Is(err, domain.ErrNotQualified) {
		t.Fatalf("twice: want ErrNotQualified, got %v", err)
	}

	mine, _ = uc.Mine(ctx, referrer.ID)
	if mine.Stats.Rewarded != 1 || !mine.Stats.TotalEarned.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("stats = %+v", mine.Stats)
	}

	logs, _, err := mysql.NewAuditRepository(db).List(ctx, domainAudit.Filter{EntityType: "referral"})
	if err != nil || len(logs) != 1 || logs[0].Action != domainAudit.ActionReferralRewarded {
		t.Fatalf("audit = %+v, %v", logs, err)
	}

	list, err := uc.List(ctx, domain.StatusRewarded, 10, 0)
	if err != nil || list.Total != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if _, err := uc.Reward(ctx, admin, RewardInput{ReferralID: 12345}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound, got %v", err)
	}
}
