package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionLoanReviewStarted  = "loan.review_started"
	ActionLoanApproved       = "loan.approved"
	ActionLoanRejected       = "loan.rejected"
	ActionIDVerified         = "loan.id_verified"
	ActionIDRejected         = "loan.id_rejected"
	ActionPaymentConfirmed   = "payment.confirmed"
	ActionPaymentFailed      = "payment.failed"
	ActionDisbursementStart  = "disbursement.processing"
	ActionDisbursementDone   = "disbursement.completed"
	ActionDisbursementFailed = "disbursement.failed"
	ActionReferralRewarded   = "referral.rewarded"
	ActionSettingUpdated     = "setting.updated"
	ActionSupportClosed      = "support.closed"
	ActionUserDeleted        = "user.deleted"
)

type Log struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"id"`
	ActorID    *uint64   `gorm:"index" json:"actor_id,omitempty"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	EntityType string    `gorm:"size:32;not null;index:idx_audit_logs_entity" json:"entity_type"`
	EntityID   string    `gorm:"size:64;not null;index:idx_audit_logs_entity" json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details,omitempty"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Log) TableName() string { return "audit_logs" }

type Filter struct {
	EntityType string
	EntityID   string
	ActorID    uint64
	Limit      int
	Offset     int
}

// Entry is what a usecase knows about an admin action; NewLog turns it into a row.
type Entry struct {
	ActorID    uint64
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	IP         string
}

func NewLog(e Entry) *Log {
	l := &Log{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		IPAddress:  e.IP,
	}
	if e.ActorID != 0 {
		actor := e.ActorID
		l.ActorID = &actor
	}
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			l.Details = string(b)
		}
	}
	return l
}
