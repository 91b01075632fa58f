package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Kind string

const (
	KindApplicationReceived Kind = "application_received"
	KindUnderReview         Kind = "application_under_review"
	KindApproved            Kind = "application_approved"
	KindRejected            Kind = "application_rejected"
	KindIDVerified          Kind = "id_verified"
	KindIDRejected          Kind = "id_rejected"
	KindFeeReminder         Kind = "fee_reminder"
	KindFeePaid             Kind = "fee_paid"
	KindPaymentFailed       Kind = "payment_failed"
	KindDisbursed           Kind = "loan_disbursed"
	KindDisbursementFailed  Kind = "disbursement_failed"
	KindSupportReply        Kind = "support_reply"
	KindReferralQualified   Kind = "referral_qualified"
)

// Table: notifications (in-app inbox)
type Notification struct {
	ID        uint64     `gorm:"primaryKey;column:id" json:"id"`
	UserID    uint64     `gorm:"not null;index:idx_notifications_user" json:"-"`
	Kind      Kind       `gorm:"size:48;not null" json:"kind"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
