package notification

import (
	"context"

	domain "lending-backend/internal/domain/notification"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/events"
	"lending-backend/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type Usecase struct {
	repo   domain.Repository
	users  domainUser.Repository
	email  EmailSender
	sms    SMSSender
	events events.Publisher
	log    *logrus.Logger
}

// NewUsecase: email, sms and pub may be nil to disable that channel.
func NewUsecase(repo domain.Repository, users domainUser.Repository, email EmailSender, sms SMSSender, pub events.Publisher, log *logrus.Logger) *Usecase {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{repo: repo, users: users, email: email, sms: sms, events: pub, log: log}
}

// Notify fans m out to every channel. Delivery failures are logged and
// counted, never returned: the action that triggered m has already committed.
func (u *Usecase) Notify(ctx context.Context, m Message) {
	entry := u.log.WithFields(logrus.Fields{"kind": m.Kind, "user": m.UserID})

	n := &domain.Notification{UserID: m.UserID, Kind: m.Kind, Title: m.Title, Body: m.Body}
	err := u.repo.Create(ctx, n)
	metrics.Notification("in_app", err)
	if err != nil {
		entry.WithError(err).Error("store notification")
	}

	usr, err := u.users.GetByID(ctx, m.UserID)
	if err != nil {
		entry.WithError(err).Warn("notification recipient lookup failed")
		return
	}

	if u.email != nil && usr.Email != "" {
		err := u.email.Send(ctx, usr.Email, m.Title, m.Body)
		metrics.Notification("email", err)
		if err != nil {
			entry.WithError(err).Warn("email delivery failed")
		}
	}
	if u.sms != nil && m.SMS && usr.Phone != "" {
		err := u.sms.Send(ctx, usr.Phone, m.Title+": "+m.Body)
		metrics.Notification("sms", err)
		if err != nil {
			entry.WithError(err).Warn("sms delivery failed")
		}
	}

	err = u.events.Publish(ctx, events.Event{
		Kind:       string(m.Kind),
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		UserID:     usr.UserID,
	})
	metrics.Notification("event", err)
	if err != nil {
		entry.WithError(err).Warn("event publish failed")
	}
}

func (u *Usecase) Inbox(ctx context.Context, userID uint64, unreadOnly bool, limit int) (*InboxDTO, error) {
	items, err := u.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	unread, err := u.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &InboxDTO{Items: make([]NotificationDTO, 0, len(items)), Unread: unread}
	for _, n := range items {
		out.Items = append(out.Items, NotificationDTO{
			ID: n.ID, Kind: string(n.Kind), Title: n.Title, Body: n.Body, ReadAt: n.ReadAt, CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (u *Usecase) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return u.repo.CountUnread(ctx, userID)
}

func (u *Usecase) MarkRead(ctx context.Context, userID, id uint64) error {
	return u.repo.MarkRead(ctx, userID, id)
}

func (u *Usecase) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return u.repo.MarkAllRead(ctx, userID)
}
