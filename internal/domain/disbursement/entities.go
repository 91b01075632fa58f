package disbursement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("disbursement not found")
	ErrAlreadyRequested  = errors.New("disbursement already requested")
	ErrInvalidTransition = errors.New("disbursement not in a state that allows this action")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Disbursement struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	DisbursementID    string          `gorm:"size:32;uniqueIndex:ux_disbursements_disbursement_id" json:"disbursement_id"`
	LoanApplicationID uint64          `gorm:"not null;uniqueIndex:ux_disbursements_loan" json:"-"`
	UserID            uint64          `gorm:"not null;index" json:"-"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	BankName          string          `gorm:"size:120;not null" json:"bank_name"`
	AccountHolderName string          `gorm:"size:150;not null" json:"account_holder_name"`
	AccountNumber     string          `gorm:"size:64;not null" json:"account_number"`
	RoutingNumber     string          `gorm:"size:64" json:"routing_number,omitempty"`
	Status            Status          `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Reference         string          `gorm:"size:36" json:"reference,omitempty"`
	FailureReason     string          `gorm:"size:255" json:"failure_reason,omitempty"`
	ProcessedBy       *uint64         `json:"-"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Disbursement) TableName() string { return "disbursements" }

// MaskedAccount keeps the last four digits.
func (d *Disbursement) MaskedAccount() string {
	n := len(d.AccountNumber)
	if n <= 4 {
		return d.AccountNumber
	}
	masked := make([]byte, n)
	for i := 0; i < n-4; i++ {
		masked[i] = '*'
	}
	copy(masked[n-4:], d.AccountNumber[n-4:])
	return string(masked)
}
