package loan

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/metrics"
	notificationUC "lending-backend/internal/usecase/notification"
	settingUC "lending-backend/internal/usecase/setting"
	"lending-backend/pkg/id"
	"lending-backend/pkg/money"

	"github.com/shopspring/decimal"
)

type settings interface {
	LoanLimits(ctx context.Context) (settingUC.LoanLimits, error)
	FeeSchedule(ctx context.Context) (money.FeeSchedule, error)
	BaseCurrency(ctx context.Context) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

type Usecase struct {
	repo     domain.Repository
	uow      uow.UnitOfWork
	settings settings
	notify   notifier
	now      func() time.Time
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, s settings, n notifier) *Usecase {
	return &Usecase{repo: r, uow: tx, settings: s, notify: n, now: time.Now}
}

func checkLimits(l settingUC.LoanLimits, amount decimal.Decimal, term int) error {
	if amount.LessThan(l.MinAmount) || amount.GreaterThan(l.MaxAmount) {
		return domain.ErrAmountOutOfRange
	}
	if term < l.MinTerm || term > l.MaxTerm {
		return domain.ErrTermOutOfRange
	}
	return nil
}

// Apply opens a new application. A user holds at most one non-terminal
// application at a time; the user row lock serializes concurrent applies.
func (u *Usecase) Apply(ctx context.Context, userID uint64, in ApplyInput) (*ApplicationDTO, error) {
	limits, err := u.settings.LoanLimits(ctx)
	if err != nil {
		return nil, err
	}
	amount := money.Round2(in.Amount)
	if err := checkLimits(limits, amount, in.TermMonths); err != nil {
		return nil, err
	}

	var a *domain.Application
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Users.GetByIDForUpdate(ctx, userID); err != nil {
			return err
		}
		_, err := r.Loans.GetActiveByUserID(ctx, userID)
		switch {
		case err == nil:
			return domain.ErrActiveApplicationExists
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		a = &domain.Application{
			ApplicationID:        id.NewID32(),
			UserID:               userID,
			RequestedAmount:      amount,
			TermMonths:           in.TermMonths,
			Purpose:              strings.TrimSpace(in.Purpose),
			Status:               domain.StatusPending,
			StatusUpdatedAt:      u.now().UTC(),
			IDVerificationStatus: domain.IDNotSubmitted,
		}
		return r.Loans.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransition(string(domain.StatusPending))
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     userID,
		Kind:       domainNotification.KindApplicationReceived,
		Title:      "Application received",
		Body:       "We received your loan application for " + amount.StringFixed(2) + ". We will review it shortly.",
		EntityType: "loan",
		EntityID:   a.ApplicationID,
	})
	dto := ToDTO(a)
	return &dto, nil
}

// Get returns the application to its owner or to an admin.
func (u *Usecase) Get(ctx context.Context, p domainUser.Principal, applicationID string) (*ApplicationDTO, error) {
	a, err := u.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.ID && !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	dto := ToDTO(a)
	return &dto, nil
}

func (u *Usecase) ListMine(ctx context.Context, userID uint64, limit, offset int) (*ListDTO, error) {
	return u.List(ctx, domain.ListFilter{UserID: userID, Limit: limit, Offset: offset})
}

// List is the admin listing; an empty status means all.
func (u *Usecase) List(ctx context.Context, f domain.ListFilter) (*ListDTO, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.ErrUnknownStatus
	}
	items, total, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &ListDTO{Items: make([]ApplicationDTO, 0, len(items)), Total: total, Limit: f.Limit, Offset: f.Offset}
	for i := range items {
		out.Items = append(out.Items, ToDTO(&items[i]))
	}
	return out, nil
}

// UploadDocuments records identity document URLs and resets verification to
// submitted. A rejected verification may be resubmitted.
func (u *Usecase) UploadDocuments(ctx context.Context, p domainUser.Principal, applicationID string, in DocumentsInput) (*ApplicationDTO, error) {
	var dto ApplicationDTO
	err := u.uow.WithinLoanTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		if a.UserID != p.ID {
			return domain.ErrForbidden
		}
		if a.Status.Terminal() {
			return domain.ErrInvalidTransition
		}
		if a.IDVerificationStatus == domain.IDVerified {
			return domain.ErrIDAlreadyVerified
		}
		a.IDDocumentFrontURL = strings.TrimSpace(in.FrontURL)
		a.IDDocumentBackURL = strings.TrimSpace(in.BackURL)
		a.SelfieURL = strings.TrimSpace(in.SelfieURL)
		a.IDVerificationStatus = domain.IDSubmitted
		a.IDVerificationNote = ""
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		dto = ToDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Quote previews the processing fee an approval of amount would carry.
func (u *Usecase) Quote(ctx context.Context, amount decimal.Decimal) (*QuoteDTO, error) {
	limits, err := u.settings.LoanLimits(ctx)
	if err != nil {
		return nil, err
	}
	amount = money.Round2(amount)
	if amount.LessThan(limits.MinAmount) || amount.GreaterThan(limits.MaxAmount) {
		return nil, domain.ErrAmountOutOfRange
	}
	fs, err := u.settings.FeeSchedule(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := u.settings.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}
	return &QuoteDTO{
		Amount:        amount,
		ProcessingFee: fs.ProcessingFee(amount),
		Currency:      cur,
		MinAmount:     limits.MinAmount,
		MaxAmount:     limits.MaxAmount,
		MinTerm:       limits.MinTerm,
		MaxTerm:       limits.MaxTerm,
	}, nil
}
