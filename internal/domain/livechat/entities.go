package livechat

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("conversation not found")
	ErrClosed        = errors.New("conversation is closed")
	ErrForbidden     = errors.New("conversation belongs to another user")
	ErrNotAssigned   = errors.New("conversation is not assigned to this agent")
	ErrAlreadyHuman  = errors.New("conversation already handed to an agent")
	ErrEmptyResponse = errors.New("assistant returned an empty reply")
)

type Status string

const (
	StatusAI           Status = "ai"
	StatusWaitingAgent Status = "waiting_agent"
	StatusActive       Status = "active"
	StatusClosed       Status = "closed"
)

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAI     SenderType = "ai"
	SenderAgent  SenderType = "agent"
	SenderSystem SenderType = "system"
)

type Conversation struct {
	ID              uint64     `gorm:"primaryKey;column:id" json:"-"`
	ConversationID  string     `gorm:"size:32;uniqueIndex:ux_live_chat_conversations_conversation_id" json:"conversation_id"`
	UserID          uint64     `gorm:"not null;index" json:"-"`
	Subject         string     `gorm:"size:200" json:"subject,omitempty"`
	Status          Status     `gorm:"size:16;not null;default:'ai';index" json:"status"`
	AssignedAgentID *uint64    `json:"-"`
	LastMessageAt   time.Time  `json:"last_message_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Conversation) TableName() string { return "live_chat_conversations" }

type Message struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"id"`
	ConversationID uint64     `gorm:"not null;index" json:"-"`
	SenderType     SenderType `gorm:"size:16;not null" json:"sender_type"`
	SenderID       *uint64    `json:"-"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string { return "live_chat_messages" }
