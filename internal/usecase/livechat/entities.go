package livechat

import (
	"time"

	domain "lending-backend/internal/domain/livechat"
)

type StartInput struct {
	Subject string
	Message string
}

type PostInput struct {
	ConversationID string
	Body           string
}

type ConversationDTO struct {
	ConversationID string     `json:"conversation_id"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	LastMessageAt  time.Time  `json:"last_message_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type MessageDTO struct {
	ID         uint64    `json:"id"`
	SenderType string    `json:"sender_type"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadDTO is returned by actions that append messages.
type ThreadDTO struct {
	Conversation ConversationDTO `json:"conversation"`
	Messages     []MessageDTO    `json:"messages"`
}

// Turn is one prior message handed to the assistant.
type Turn struct {
	FromUser bool
	Content  string
}

func toConversationDTO(c *domain.Conversation) ConversationDTO {
	return ConversationDTO{
		ConversationID: c.ConversationID,
		Subject:        c.Subject,
		Status:         string(c.Status),
		LastMessageAt:  c.LastMessageAt,
		ClosedAt:       c.ClosedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func toMessageDTO(m *domain.Message) MessageDTO {
	return MessageDTO{ID: m.ID, SenderType: string(m.SenderType), Body: m.Body, CreatedAt: m.CreatedAt}
}
