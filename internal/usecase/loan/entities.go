package loan

import (
	"time"

	domain "lending-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type ApplyInput struct {
	Amount     decimal.Decimal
	TermMonths int
	Purpose    string
}

type DocumentsInput struct {
	FrontURL  string
	BackURL   string
	SelfieURL string
}

type ApplicationDTO struct {
	ApplicationID        string          `json:"application_id"`
	RequestedAmount      decimal.Decimal `json:"requested_amount"`
	ApprovedAmount       decimal.Decimal `json:"approved_amount"`
	TermMonths           int             `json:"term_months"`
	Purpose              string          `json:"purpose"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	ProcessingFee        decimal.Decimal `json:"processing_fee"`
	Status               string          `json:"status"`
	StatusUpdatedAt      time.Time       `json:"status_updated_at"`
	IDVerificationStatus string          `json:"id_verification_status"`
	IDVerificationNote   string          `json:"id_verification_note,omitempty"`
	RejectionReason      string          `json:"rejection_reason,omitempty"`
	ReviewedAt           *time.Time      `json:"reviewed_at,omitempty"`
	ApprovedAt           *time.Time      `json:"approved_at,omitempty"`
	FeePaidAt            *time.Time      `json:"fee_paid_at,omitempty"`
	DisbursedAt          *time.Time      `json:"disbursed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

type ListDTO struct {
	Items  []ApplicationDTO `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type QuoteDTO struct {
	Amount        decimal.Decimal `json:"amount"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	Currency      string          `json:"currency"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	MinTerm       int             `json:"min_term_months"`
	MaxTerm       int             `json:"max_term_months"`
}

func ToDTO(a *domain.Application) ApplicationDTO {
	return ApplicationDTO{
		ApplicationID:        a.ApplicationID,
		RequestedAmount:      a.RequestedAmount,
		ApprovedAmount:       a.ApprovedAmount,
		TermMonths:           a.TermMonths,
		Purpose:              a.Purpose,
		InterestRate:         a.InterestRate,
		ProcessingFee:        a.ProcessingFee,
		Status:               string(a.Status),
		StatusUpdatedAt:      a.StatusUpdatedAt,
		IDVerificationStatus: string(a.IDVerificationStatus),
		IDVerificationNote:   a.IDVerificationNote,
		RejectionReason:      a.RejectionReason,
		ReviewedAt:           a.ReviewedAt,
		ApprovedAt:           a.ApprovedAt,
		FeePaidAt:            a.FeePaidAt,
		DisbursedAt:          a.DisbursedAt,
		CreatedAt:            a.CreatedAt,
	}
}
