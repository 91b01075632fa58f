package support

import (
	"context"
	"errors"
	"strings"
	"time"

	"lending-backend/internal/domain/audit"
	domainNotification "lending-backend/internal/domain/notification"
	domain "lending-backend/internal/domain/support"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	notificationUC "lending-backend/internal/usecase/notification"
	"lending-backend/pkg/id"
)

var ErrEmpty = errors.New("subject and body are required")

type notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

type Usecase struct {
	repo   domain.Repository
	uow    uow.UnitOfWork
	notify notifier
	now    func() time.Time
}

func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, n notifier) *Usecase {
	return &Usecase{repo: repo, uow: tx, notify: n, now: time.Now}
}

func canSee(p domainUser.Principal, m *domain.Message) error {
	if m.UserID != p.ID && !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (u *Usecase) Create(ctx context.Context, userID uint64, in CreateInput) (*TicketDTO, error) {
	subject, body := strings.TrimSpace(in.Subject), strings.TrimSpace(in.Body)
	if subject == "" || body == "" {
		return nil, ErrEmpty
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if !categories[category] {
		category = "general"
	}
	m := &domain.Message{
		MessageID: id.NewID32(),
		UserID:    userID,
		Subject:   subject,
		Body:      body,
		Category:  category,
		Status:    domain.StatusOpen,
	}
	if err := u.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	dto := toDTO(m)
	return &dto, nil
}

func (u *Usecase) ListMine(ctx context.Context, userID uint64) ([]TicketDTO, error) {
	items, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TicketDTO, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out, nil
}

// Get returns the ticket with its thread to the owner or staff.
func (u *Usecase) Get(ctx context.Context, p domainUser.Principal, messageID string) (*TicketDTO, error) {
	m, err := u.repo.GetWithReplies(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := canSee(p, m); err != nil {
		return nil, err
	}
	dto := toDTO(m)
	return &dto, nil
}

// List is the staff queue; an empty status means all.
func (u *Usecase) List(ctx context.Context, status domain.Status, limit, offset int) (*ListDTO, error) {
	items, total, err := u.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &ListDTO{Items: make([]TicketDTO, 0, len(items)), Total: total, Limit: limit, Offset: offset}
	for i := range items {
		out.Items = append(out.Items, toDTO(&items[i]))
	}
	return out, nil
}

// Reply adds to the thread. A staff reply marks the ticket answered and
// notifies the owner; an owner reply reopens it.
func (u *Usecase) Reply(ctx context.Context, p domainUser.Principal, in ReplyInput) (*TicketDTO, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, ErrEmpty
	}
	var m *domain.Message
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if m, err = r.Support.GetByMessageID(ctx, in.MessageID); err != nil {
			return err
		}
		if err := canSee(p, m); err != nil {
			return err
		}
		if m.Status == domain.StatusClosed {
			return domain.ErrClosed
		}
		staff := p.IsAdmin() && m.UserID != p.ID
		if err := r.Support.AddReply(ctx, &domain.Reply{SupportMessageID: m.ID, AuthorID: p.ID, IsStaff: staff, Body: body}); err != nil {
			return err
		}
		if staff {
			m.Status = domain.StatusAnswered
		} else {
			m.Status = domain.StatusOpen
		}
		return r.Support.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	if m.Status == domain.StatusAnswered {
		u.notify.Notify(ctx, notificationUC.Message{
			UserID:     m.UserID,
			Kind:       domainNotification.KindSupportReply,
			Title:      "Re: " + m.Subject,
			Body:       body,
			EntityType: "support",
			EntityID:   m.MessageID,
		})
	}
	return u.Get(ctx, p, m.MessageID)
}

// Close may be done by the owner or staff; staff closes are audited.
func (u *Usecase) Close(ctx context.Context, p domainUser.Principal, messageID string) (*TicketDTO, error) {
	var m *domain.Message
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if m, err = r.Support.GetByMessageID(ctx, messageID); err != nil {
			return err
		}
		if err := canSee(p, m); err != nil {
			return err
		}
		if m.Status == domain.StatusClosed {
			return domain.ErrClosed
		}
		now := u.now().UTC()
		m.Status = domain.StatusClosed
		m.ClosedAt = &now
		if err := r.Support.Save(ctx, m); err != nil {
			return err
		}
		if m.UserID == p.ID {
			return nil
		}
		return r.Audits.Create(ctx, audit.NewLog(audit.Entry{
			ActorID:    p.ID,
			Action:     audit.ActionSupportClosed,
			EntityType: "support",
			EntityID:   m.MessageID,
			IP:         p.IP,
		}))
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(m)
	return &dto, nil
}
