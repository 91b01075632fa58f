package support

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("support message not found")
	ErrClosed    = errors.New("support ticket is closed")
	ErrForbidden = errors.New("support ticket belongs to another user")
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

// Message is a support ticket: the opening message plus its reply thread.
type Message struct {
	ID        uint64         `gorm:"primaryKey;column:id" json:"-"`
	MessageID string         `gorm:"size:32;uniqueIndex:ux_support_messages_message_id" json:"message_id"`
	UserID    uint64         `gorm:"not null;index" json:"-"`
	Subject   string         `gorm:"size:200;not null" json:"subject"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	Category  string         `gorm:"size:32;not null;default:'general'" json:"category"`
	Status    Status         `gorm:"size:16;not null;default:'open';index" json:"status"`
	ClosedAt  *time.Time     `json:"closed_at,omitempty"`
	Replies   []Reply        `gorm:"foreignKey:SupportMessageID" json:"replies,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string { return "support_messages" }

type Reply struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"-"`
	SupportMessageID uint64    `gorm:"not null;index" json:"-"`
	AuthorID         uint64    `gorm:"not null" json:"-"`
	IsStaff          bool      `gorm:"not null;default:false" json:"is_staff"`
	Body             string    `gorm:"type:text;not null" json:"body"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Reply) TableName() string { return "support_replies" }
