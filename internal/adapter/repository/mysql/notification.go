package mysql

import (
	"context"
	"time"

	notifDomain "lending-backend/internal/domain/notification"

	"gorm.io/gorm"
)

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notifDomain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]notifDomain.Notification, error) {
	limit, _ = page(limit, 0)
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []notifDomain.Notification
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notifDomain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).Count(&n).Error
	return n, err
}

// MarkRead is scoped to the owner; marking an already read row is a no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uint64) error {
	var n notifDomain.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		return notFound(err, notifDomain.ErrNotFound)
	}
	if n.ReadAt != nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(&n).Update("read_at", time.Now().UTC()).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&notifDomain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}
