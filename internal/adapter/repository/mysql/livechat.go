package mysql

import (
	"context"

	chatDomain "lending-backend/internal/domain/livechat"

	"gorm.io/gorm"
)

type LiveChatRepository struct{ db *gorm.DB }

func NewLiveChatRepository(db *gorm.DB) *LiveChatRepository { return &LiveChatRepository{db: db} }

func (r *LiveChatRepository) CreateConversation(ctx context.Context, c *chatDomain.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *LiveChatRepository) SaveConversation(ctx context.Context, c *chatDomain.Conversation) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *LiveChatRepository) GetByConversationID(ctx context.Context, conversationID string) (*chatDomain.Conversation, error) {
	var out chatDomain.Conversation
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&out).Error
	if err != nil {
		return nil, notFound(err, chatDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LiveChatRepository) ListByUser(ctx context.Context, userID uint64) ([]chatDomain.Conversation, error) {
	var out []chatDomain.Conversation
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("last_message_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *LiveChatRepository) ListByStatus(ctx context.Context, status chatDomain.Status, limit int) ([]chatDomain.Conversation, error) {
	limit, _ = page(limit, 0)
	var out []chatDomain.Conversation
	err := r.db.WithContext(ctx).Where("status = ?", status).
		Order("last_message_at, id").Limit(limit).Find(&out).Error
	return out, err
}

func (r *LiveChatRepository) CountByStatus(ctx context.Context, status chatDomain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&chatDomain.Conversation{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *LiveChatRepository) AddMessage(ctx context.Context, m *chatDomain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *LiveChatRepository) ListMessages(ctx context.Context, conversationID uint64, limit int) ([]chatDomain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []chatDomain.Message
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).
		Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
