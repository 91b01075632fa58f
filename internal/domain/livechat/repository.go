package livechat

import "context"

type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetByConversationID(ctx context.Context, conversationID string) (*Conversation, error)
	ListByUser(ctx context.Context, userID uint64) ([]Conversation, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Conversation, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	SaveConversation(ctx context.Context, c *Conversation) error
	AddMessage(ctx context.Context, m *Message) error
	// Newest `limit` messages, returned oldest first
	ListMessages(ctx context.Context, conversationID uint64, limit int) ([]Message, error)
}
