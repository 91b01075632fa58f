package mysql

import (
	"context"

	supportDomain "lending-backend/internal/domain/support"

	"gorm.io/gorm"
)

type SupportRepository struct{ db *gorm.DB }

func NewSupportRepository(db *gorm.DB) *SupportRepository { return &SupportRepository{db: db} }

func (r *SupportRepository) Create(ctx context.Context, m *supportDomain.Message) error {
	return r.db.WithContext(ctx).Omit("Replies").Create(m).Error
}

func (r *SupportRepository) Save(ctx context.Context, m *supportDomain.Message) error {
	return r.db.WithContext(ctx).Omit("Replies").Save(m).Error
}

func (r *SupportRepository) GetByMessageID(ctx context.Context, messageID string) (*supportDomain.Message, error) {
	var out supportDomain.Message
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&out).Error
	if err != nil {
		return nil, notFound(err, supportDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *SupportRepository) GetWithReplies(ctx context.Context, messageID string) (*supportDomain.Message, error) {
	var out supportDomain.Message
	err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where("message_id = ?", messageID).First(&out).Error
	if err != nil {
		return nil, notFound(err, supportDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *SupportRepository) ListByUser(ctx context.Context, userID uint64) ([]supportDomain.Message, error) {
	var out []supportDomain.Message
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *SupportRepository) List(ctx context.Context, status supportDomain.Status, limit, offset int) ([]supportDomain.Message, int64, error) {
	limit, offset = page(limit, offset)
	q := r.db.WithContext(ctx).Model(&supportDomain.Message{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []supportDomain.Message
	err := q.Order("created_at, id").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *SupportRepository) CountByStatus(ctx context.Context, status supportDomain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&supportDomain.Message{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *SupportRepository) AddReply(ctx context.Context, rep *supportDomain.Reply) error {
	return r.db.WithContext(ctx).Create(rep).Error
}
