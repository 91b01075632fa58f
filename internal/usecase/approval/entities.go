package approval

import (
	"time"

	loanUC "lending-backend/internal/usecase/loan"

	"github.com/shopspring/decimal"
)

type ApproveInput struct {
	ApplicationID  string
	ApprovedAmount decimal.Decimal
	// nil falls back to the default_interest_rate setting
	InterestRate *decimal.Decimal
	Note         string
}

// ReviewInput carries the free-text part of reject / reject-id actions.
type ReviewInput struct {
	ApplicationID string
	Reason        string
}

type ApprovalDTO struct {
	ApprovalID     string                `json:"approval_id"`
	ApprovedAmount decimal.Decimal       `json:"approved_amount"`
	InterestRate   decimal.Decimal       `json:"interest_rate"`
	ProcessingFee  decimal.Decimal       `json:"processing_fee"`
	Note           string                `json:"note,omitempty"`
	ApprovedAt     time.Time             `json:"approved_at"`
	Application    loanUC.ApplicationDTO `json:"application"`
}
