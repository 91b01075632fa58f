// Package reminder holds the background jobs: processing fee reminders and
// expiry of unpaid crypto quotes.
package reminder

import (
	"context"
	"fmt"
	"time"

	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	domainSetting "lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	"lending-backend/internal/infrastructure/scheduler"
	notificationUC "lending-backend/internal/usecase/notification"

	"github.com/sirupsen/logrus"
)

const (
	FeeReminderSpec  = "*/15 * * * *"
	CryptoExpirySpec = "* * * * *"
)

type settings interface {
	Int(ctx context.Context, key string) (int, error)
	BaseCurrency(ctx context.Context) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

type expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Registrar is satisfied by the cron scheduler.
type Registrar interface {
	Add(name, spec string, job scheduler.Job) error
}

type Usecase struct {
	loans    domainLoan.Repository
	uow      uow.UnitOfWork
	settings settings
	notify   notifier
	payments expirer
	log      *logrus.Logger
	now      func() time.Time
}

func NewUsecase(loans domainLoan.Repository, tx uow.UnitOfWork, s settings, n notifier, payments expirer, log *logrus.Logger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{loans: loans, uow: tx, settings: s, notify: n, payments: payments, log: log, now: time.Now}
}

// SendFeeReminders notifies borrowers whose approved loan has waited for the
// processing fee longer than fee_reminder_hours, at most once per window.
func (u *Usecase) SendFeeReminders(ctx context.Context) (int, error) {
	hours, err := u.settings.Int(ctx, domainSetting.KeyFeeReminderHours)
	if err != nil {
		return 0, fmt.Errorf("reminder window: %w", err)
	}
	if hours <= 0 {
		return 0, nil
	}
	currency, err := u.settings.BaseCurrency(ctx)
	if err != nil {
		return 0, err
	}
	now := u.now().UTC()
	before := now.Add(-time.Duration(hours) * time.Hour)
	due, err := u.loans.ListAwaitingFee(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("list awaiting fee: %w", err)
	}

	sent := 0
	for _, d := range due {
		var remind *domainLoan.Application
		err := u.uow.WithinLoanTx(ctx, d.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
			if a.Status != domainLoan.StatusApproved && a.Status != domainLoan.StatusFeePending {
				return nil
			}
			if a.FeeReminderSentAt != nil && !a.FeeReminderSentAt.Before(before) {
				return nil
			}
			a.FeeReminderSentAt = &now
			if err := r.Loans.Save(ctx, a); err != nil {
				return err
			}
			remind = a
			return nil
		})
		if err != nil {
			u.log.WithError(err).WithField("application", d.ApplicationID).Error("fee reminder")
			continue
		}
		if remind == nil {
			continue
		}
		u.notify.Notify(ctx, notificationUC.Message{
			UserID:     remind.UserID,
			Kind:       domainNotification.KindFeeReminder,
			Title:      "Processing fee due",
			Body:       "Pay the processing fee of " + remind.ProcessingFee.StringFixed(2) + " " + currency + " to receive your loan.",
			SMS:        true,
			EntityType: "loan",
			EntityID:   remind.ApplicationID,
		})
		sent++
	}
	return sent, nil
}

func (u *Usecase) ExpireCryptoQuotes(ctx context.Context) (int, error) {
	return u.payments.ExpireStale(ctx)
}

// Register schedules both jobs. Empty specs use the package defaults.
func (u *Usecase) Register(s Registrar, feeSpec, expirySpec string) error {
	if feeSpec == "" {
		feeSpec = FeeReminderSpec
	}
	if expirySpec == "" {
		expirySpec = CryptoExpirySpec
	}
	if err := s.Add("fee_reminders", feeSpec, func(ctx context.Context) error {
		n, err := u.SendFeeReminders(ctx)
		if n > 0 {
			u.log.WithField("sent", n).Info("fee reminders sent")
		}
		return err
	}); err != nil {
		return err
	}
	return s.Add("crypto_expiry", expirySpec, func(ctx context.Context) error {
		n, err := u.ExpireCryptoQuotes(ctx)
		if n > 0 {
			u.log.WithField("expired", n).Info("crypto quotes expired")
		}
		return err
	})
}
