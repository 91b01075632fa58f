package referral

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("referral not found")
	ErrSelfReferral    = errors.New("cannot refer yourself")
	ErrNotQualified    = errors.New("referral not qualified for reward")
	ErrAlreadyReferred = errors.New("user already has a referrer")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusQualified Status = "qualified"
	StatusRewarded  Status = "rewarded"
)

type Referral struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"id"`
	ReferrerID   uint64          `gorm:"not null;index:idx_referrals_referrer" json:"-"`
	ReferredID   uint64          `gorm:"not null;uniqueIndex:ux_referrals_referred" json:"-"`
	Code         string          `gorm:"size:16;not null" json:"code"`
	Status       Status          `gorm:"size:16;not null;default:'pending'" json:"status"`
	RewardAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"reward_amount"`
	QualifiedAt  *time.Time      `json:"qualified_at,omitempty"`
	RewardedAt   *time.Time      `json:"rewarded_at,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Referral) TableName() string { return "referrals" }

type Stats struct {
	Invited     int64           `json:"invited"`
	Qualified   int64           `json:"qualified"`
	Rewarded    int64           `json:"rewarded"`
	TotalEarned decimal.Decimal `json:"total_earned"`
}

// Qualify marks a pending referral as earned.
func (r *Referral) Qualify(reward decimal.Decimal, at time.Time) error {
	if r.Status != StatusPending {
		return ErrNotQualified
	}
	r.Status = StatusQualified
	r.RewardAmount = reward
	r.QualifiedAt = &at
	return nil
}

func (r *Referral) Reward(at time.Time) error {
	if r.Status != StatusQualified {
		return ErrNotQualified
	}
	r.Status = StatusRewarded
	r.RewardedAt = &at
	return nil
}
