package approval

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("approval not found")
)

// Approval is the admin decision record written when a loan is approved.
// Table: approvals, at most one active row per loan.
type Approval struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ApprovalID string `gorm:"column:approval_id;type:char(32);not null;uniqueIndex:ux_approvals_approval_id_active"`
	// FK to loan_applications.id (numeric)
	LoanID         uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_approvals_loan_active"`
	ReviewerID     uint64          `gorm:"column:reviewer_id;not null"`
	ApprovedAmount decimal.Decimal `gorm:"column:approved_amount;type:decimal(18,2);not null"`
	InterestRate   decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,3);not null"`
	ProcessingFee  decimal.Decimal `gorm:"column:processing_fee;type:decimal(18,2);not null"`
	Note           string          `gorm:"column:note;size:500"`
	ApprovalDate   time.Time       `gorm:"column:approval_date;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at;index"`
	DeletedBy      *string         `gorm:"column:deleted_by;type:char(32);"`
}

func (Approval) TableName() string { return "approvals" }
