package support

import "context"

type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByMessageID(ctx context.Context, messageID string) (*Message, error)
	// Same as GetByMessageID with Replies preloaded oldest first
	GetWithReplies(ctx context.Context, messageID string) (*Message, error)
	ListByUser(ctx context.Context, userID uint64) ([]Message, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Message, int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	AddReply(ctx context.Context, r *Reply) error
	Save(ctx context.Context, m *Message) error
}
