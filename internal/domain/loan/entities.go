package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound                = errors.New("loan application not found")
	ErrInvalidTransition       = errors.New("loan not in a state that allows this action")
	ErrAlreadyApproved         = errors.New("loan already approved")
	ErrActiveApplicationExists = errors.New("an active loan application already exists")
	ErrAmountOutOfRange        = errors.New("requested amount outside allowed range")
	ErrTermOutOfRange          = errors.New("term outside allowed range")
	ErrIDNotVerified           = errors.New("identity documents not verified")
	ErrIDNotSubmitted          = errors.New("identity documents not submitted")
	ErrIDAlreadyVerified       = errors.New("identity documents already verified")
	ErrApprovedExceedsRequest  = errors.New("approved amount exceeds requested amount")
	ErrFeeNotPaid              = errors.New("processing fee not paid")
	ErrForbidden               = errors.New("loan application belongs to another user")
	ErrUnknownStatus           = errors.New("unknown loan status")
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFeePending  Status = "fee_pending"
	StatusFeePaid     Status = "fee_paid"
	StatusDisbursed   Status = "disbursed"
)

// transitions lists every allowed move. fee_pending -> approved releases a
// loan whose fee payment failed or expired.
var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusFeePending},
	StatusFeePending:  {StatusFeePaid, StatusApproved},
	StatusFeePaid:     {StatusDisbursed},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected,
		StatusFeePending, StatusFeePaid, StatusDisbursed:
		return true
	}
	return false
}

// Terminal statuses never move again.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusDisbursed }

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type IDVerificationStatus string

const (
	IDNotSubmitted IDVerificationStatus = "not_submitted"
	IDSubmitted    IDVerificationStatus = "submitted"
	IDVerified     IDVerificationStatus = "verified"
	IDRejected     IDVerificationStatus = "rejected"
)

type Application struct {
	ID                   uint64               `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID        string               `gorm:"size:32;uniqueIndex:ux_loan_applications_application_id" json:"application_id"`
	UserID               uint64               `gorm:"not null;index:idx_loan_applications_user" json:"-"`
	RequestedAmount      decimal.Decimal      `gorm:"type:decimal(18,2);not null" json:"requested_amount"`
	ApprovedAmount       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0" json:"approved_amount"`
	TermMonths           int                  `gorm:"not null" json:"term_months"`
	Purpose              string               `gorm:"size:255" json:"purpose"`
	InterestRate         decimal.Decimal      `gorm:"type:decimal(6,3);not null;default:0" json:"interest_rate"`
	ProcessingFee        decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0" json:"processing_fee"`
	Status               Status               `gorm:"size:20;not null;default:'pending';index:idx_loan_applications_status" json:"status"`
	StatusUpdatedAt      time.Time            `json:"status_updated_at"`
	IDVerificationStatus IDVerificationStatus `gorm:"size:20;not null;default:'not_submitted'" json:"id_verification_status"`
	IDDocumentFrontURL   string               `gorm:"type:text" json:"id_document_front_url,omitempty"`
	IDDocumentBackURL    string               `gorm:"type:text" json:"id_document_back_url,omitempty"`
	SelfieURL            string               `gorm:"type:text" json:"selfie_url,omitempty"`
	IDVerificationNote   string               `gorm:"size:500" json:"id_verification_note,omitempty"`
	RejectionReason      string               `gorm:"size:500" json:"rejection_reason,omitempty"`
	ReviewedBy           *uint64              `json:"-"`
	ReviewedAt           *time.Time           `json:"reviewed_at,omitempty"`
	ApprovedAt           *time.Time           `json:"approved_at,omitempty"`
	FeePaidAt            *time.Time           `json:"fee_paid_at,omitempty"`
	DisbursedAt          *time.Time           `json:"disbursed_at,omitempty"`
	FeeReminderSentAt    *time.Time           `json:"-"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt       `gorm:"index" json:"-"`
}

func (Application) TableName() string { return "loan_applications" }

// Transition moves the application to `to`, stamping the matching timestamp.
func (a *Application) Transition(to Status, at time.Time) error {
	if !CanTransition(a.Status, to) {
		return ErrInvalidTransition
	}
	a.Status = to
	a.StatusUpdatedAt = at
	switch to {
	case StatusApproved:
		if a.ApprovedAt == nil {
			a.ApprovedAt = &at
		}
	case StatusFeePaid:
		a.FeePaidAt = &at
	case StatusDisbursed:
		a.DisbursedAt = &at
	}
	return nil
}
