package setting

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettingDTO struct {
	Key         string     `json:"key"`
	Value       string     `json:"value"`
	Default     string     `json:"default"`
	Description string     `json:"description"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type UpdateInput struct {
	Key     string
	Value   string
	ActorID uint64
	IP      string
}

type LoanLimits struct {
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	MinTerm   int             `json:"min_term_months"`
	MaxTerm   int             `json:"max_term_months"`
}

type CryptoRules struct {
	MinConfirmations int
	TolerancePercent decimal.Decimal
	TTL              time.Duration
}
