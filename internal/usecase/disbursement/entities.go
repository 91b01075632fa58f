package disbursement

import (
	"time"

	domain "lending-backend/internal/domain/disbursement"

	"github.com/shopspring/decimal"
)

type RequestInput struct {
	ApplicationID     string
	BankName          string
	AccountHolderName string
	AccountNumber     string
	RoutingNumber     string
}

// AdminInput drives processing / complete / fail. Reference is the bank
// transfer reference; Reason is required when failing.
type AdminInput struct {
	DisbursementID string
	Reference      string
	Reason         string
}

type DisbursementDTO struct {
	DisbursementID    string          `json:"disbursement_id"`
	ApplicationID     string          `json:"application_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	BankName          string          `json:"bank_name"`
	AccountHolderName string          `json:"account_holder_name"`
	AccountNumber     string          `json:"account_number"`
	RoutingNumber     string          `json:"routing_number,omitempty"`
	Status            string          `json:"status"`
	Reference         string          `json:"reference,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type ListDTO struct {
	Items  []DisbursementDTO `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// toDTO masks the account number unless reveal is set (staff views).
func toDTO(d *domain.Disbursement, applicationID string, reveal bool) DisbursementDTO {
	account := d.AccountNumber
	if !reveal {
		account = d.MaskedAccount()
	}
	return DisbursementDTO{
		DisbursementID:    d.DisbursementID,
		ApplicationID:     applicationID,
		Amount:            d.Amount,
		Currency:          d.Currency,
		BankName:          d.BankName,
		AccountHolderName: d.AccountHolderName,
		AccountNumber:     account,
		RoutingNumber:     d.RoutingNumber,
		Status:            string(d.Status),
		Reference:         d.Reference,
		FailureReason:     d.FailureReason,
		CompletedAt:       d.CompletedAt,
		CreatedAt:         d.CreatedAt,
	}
}
