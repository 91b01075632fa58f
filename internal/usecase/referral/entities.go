package referral

import (
	"strconv"
	"strings"
	"time"

	domain "lending-backend/internal/domain/referral"

	"github.com/shopspring/decimal"
)

type ReferralDTO struct {
	ID           uint64          `json:"id"`
	Referred     string          `json:"referred"`
	Code         string          `json:"code"`
	Status       string          `json:"status"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	QualifiedAt  *time.Time      `json:"qualified_at,omitempty"`
	RewardedAt   *time.Time      `json:"rewarded_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SummaryDTO is what a borrower sees on their referral page.
type SummaryDTO struct {
	Code      string        `json:"referral_code"`
	Stats     domain.Stats  `json:"stats"`
	Referrals []ReferralDTO `json:"referrals"`
}

type ListDTO struct {
	Items  []ReferralDTO `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type RewardInput struct {
	ReferralID uint64
}

func toDTO(r *domain.Referral, referred string) ReferralDTO {
	return ReferralDTO{
		ID:           r.ID,
		Referred:     referred,
		Code:         r.Code,
		Status:       string(r.Status),
		RewardAmount: r.RewardAmount,
		QualifiedAt:  r.QualifiedAt,
		RewardedAt:   r.RewardedAt,
		CreatedAt:    r.CreatedAt,
	}
}

// maskEmail keeps the first letter of the local part: a***@example.com.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }
