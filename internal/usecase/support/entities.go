package support

import (
	"time"

	domain "lending-backend/internal/domain/support"
)

type CreateInput struct {
	Subject  string
	Body     string
	Category string
}

type ReplyInput struct {
	MessageID string
	Body      string
}

type ReplyDTO struct {
	IsStaff   bool      `json:"is_staff"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type TicketDTO struct {
	MessageID string     `json:"message_id"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Category  string     `json:"category"`
	Status    string     `json:"status"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Replies   []ReplyDTO `json:"replies,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ListDTO struct {
	Items  []TicketDTO `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

var categories = map[string]bool{
	"general": true, "loan": true, "payment": true, "account": true, "technical": true,
}

func toDTO(m *domain.Message) TicketDTO {
	d := TicketDTO{
		MessageID: m.MessageID,
		Subject:   m.Subject,
		Body:      m.Body,
		Category:  m.Category,
		Status:    string(m.Status),
		ClosedAt:  m.ClosedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, r := range m.Replies {
		d.Replies = append(d.Replies, ReplyDTO{IsStaff: r.IsStaff, Body: r.Body, CreatedAt: r.CreatedAt})
	}
	return d
}
