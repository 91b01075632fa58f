package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	domain "lending-backend/internal/domain/payment"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/metrics"
	notificationUC "lending-backend/internal/usecase/notification"
	settingUC "lending-backend/internal/usecase/setting"
	"lending-backend/pkg/id"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrGateway wraps failures of the card, rate, FX and explorer providers.
	ErrGateway        = errors.New("payment provider unavailable")
	ErrTxHashRequired = errors.New("submit a transaction hash first")
	ErrReasonRequired = errors.New("a reason is required")
)

type Settings interface {
	BaseCurrency(ctx context.Context) (string, error)
	Wallet(ctx context.Context, coin domain.Coin) (string, error)
	CryptoRules(ctx context.Context) (settingUC.CryptoRules, error)
}

type Notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

type Deps struct {
	Payments domain.Repository
	Loans    domainLoan.Repository
	UoW      uow.UnitOfWork
	Settings Settings
	Notifier Notifier
	Card     CardGateway
	Rates    RateProvider
	FX       FXProvider
	Explorer Explorer
	Log      *logrus.Logger
}

type Usecase struct {
	payments domain.Repository
	loans    domainLoan.Repository
	uow      uow.UnitOfWork
	settings Settings
	notify   Notifier
	card     CardGateway
	rates    RateProvider
	fx       FXProvider
	explorer Explorer
	log      *logrus.Logger
	now      func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Usecase{
		payments: d.Payments,
		loans:    d.Loans,
		uow:      d.UoW,
		settings: d.Settings,
		notify:   d.Notifier,
		card:     d.Card,
		rates:    d.Rates,
		fx:       d.FX,
		explorer: d.Explorer,
		log:      d.Log,
		now:      time.Now,
	}
}

// effects collects what to report once the transaction has committed.
type effects struct {
	transitions []domainLoan.Status
	payments    [][2]string // method, status
	notices     []notificationUC.Message
}

func (e *effects) payment(p *domain.Payment) {
	e.payments = append(e.payments, [2]string{string(p.Method), string(p.Status)})
}

func (u *Usecase) flush(ctx context.Context, e *effects) {
	for _, s := range e.transitions {
		metrics.LoanTransition(string(s))
	}
	for _, p := range e.payments {
		metrics.Payment(p[0], p[1])
	}
	for _, m := range e.notices {
		u.notify.Notify(ctx, m)
	}
}

func payable(a *domainLoan.Application) error {
	switch a.Status {
	case domainLoan.StatusApproved, domainLoan.StatusFeePending:
		return nil
	case domainLoan.StatusFeePaid, domainLoan.StatusDisbursed:
		return domain.ErrAlreadyPaid
	default:
		return domainLoan.ErrInvalidTransition
	}
}

func (u *Usecase) ownedPayable(ctx context.Context, p domainUser.Principal, applicationID string) (*domainLoan.Application, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.ID {
		return nil, domainLoan.ErrForbidden
	}
	if err := payable(a); err != nil {
		return nil, err
	}
	return a, nil
}

// lockFee moves an approved loan to fee_pending while a payment is open.
func (u *Usecase) lockFee(ctx context.Context, r uow.Repos, a *domainLoan.Application, e *effects) error {
	if err := payable(a); err != nil {
		return err
	}
	if a.Status != domainLoan.StatusApproved {
		return nil
	}
	if err := a.Transition(domainLoan.StatusFeePending, u.now().UTC()); err != nil {
		return err
	}
	e.transitions = append(e.transitions, domainLoan.StatusFeePending)
	return r.Loans.Save(ctx, a)
}

// withPayment runs fn with the owning loan and then the payment locked.
func (u *Usecase) withPayment(ctx context.Context, paymentID string, fn func(r uow.Repos, a *domainLoan.Application, pay *domain.Payment) error) error {
	pre, err := u.payments.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}
	owner, err := u.loans.GetByID(ctx, pre.LoanApplicationID)
	if err != nil {
		return err
	}
	return u.uow.WithinLoanTx(ctx, owner.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
		pay, err := r.Payments.GetByPaymentIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		return fn(r, a, pay)
	})
}

// succeed settles pay and marks the fee paid. A second successful payment for
// the same loan is recorded as failed instead.
func (u *Usecase) succeed(ctx context.Context, r uow.Repos, a *domainLoan.Application, pay *domain.Payment, e *effects) error {
	if pay.Status.Final() {
		return nil
	}
	paid, err := r.Payments.HasSucceeded(ctx, a.ID)
	if err != nil {
		return err
	}
	if paid || a.Status == domainLoan.StatusFeePaid || a.Status == domainLoan.StatusDisbursed {
		pay.Fail(domain.StatusFailed, "processing fee already paid")
		e.payment(pay)
		return r.Payments.Save(ctx, pay)
	}

	now := u.now().UTC()
	if err := u.lockFee(ctx, r, a, e); err != nil {
		return err
	}
	if err := a.Transition(domainLoan.StatusFeePaid, now); err != nil {
		return err
	}
	pay.Succeed(now)
	if err := r.Payments.Save(ctx, pay); err != nil {
		return err
	}
	if err := r.Loans.Save(ctx, a); err != nil {
		return err
	}
	e.transitions = append(e.transitions, domainLoan.StatusFeePaid)
	e.payment(pay)
	e.notices = append(e.notices, notificationUC.Message{
		UserID:     a.UserID,
		Kind:       domainNotification.KindFeePaid,
		Title:      "Processing fee received",
		Body:       "We received your processing fee of " + pay.Amount.StringFixed(2) + " " + pay.Currency + ". Submit your bank details to receive the funds.",
		EntityType: "loan",
		EntityID:   a.ApplicationID,
	})
	return nil
}

// fail closes pay with status and releases the loan back to approved when no
// other payment is still open.
func (u *Usecase) fail(ctx context.Context, r uow.Repos, a *domainLoan.Application, pay *domain.Payment, status domain.Status, reason string, e *effects) error {
	if pay.Status.Final() {
		return nil
	}
	pay.Fail(status, reason)
	if err := r.Payments.Save(ctx, pay); err != nil {
		return err
	}
	e.payment(pay)

	if a.Status == domainLoan.StatusFeePending {
		open, err := r.Payments.ListOpenByLoan(ctx, a.ID)
		if err != nil {
			return err
		}
		others := 0
		for _, o := range open {
			if o.ID != pay.ID {
				others++
			}
		}
		if others == 0 {
			if err := a.Transition(domainLoan.StatusApproved, u.now().UTC()); err != nil {
				return err
			}
			if err := r.Loans.Save(ctx, a); err != nil {
				return err
			}
			e.transitions = append(e.transitions, domainLoan.StatusApproved)
		}
	}

	if status == domain.StatusFailed {
		e.notices = append(e.notices, notificationUC.Message{
			UserID:     a.UserID,
			Kind:       domainNotification.KindPaymentFailed,
			Title:      "Fee payment failed",
			Body:       "Your processing fee payment failed (" + reason + "). You can try again.",
			EntityType: "loan",
			EntityID:   a.ApplicationID,
		})
	}
	return nil
}

// InitiateCard opens a card payment intent for the loan's processing fee. An
// intent that is still open is returned instead of creating another one.
func (u *Usecase) InitiateCard(ctx context.Context, p domainUser.Principal, applicationID string) (*PaymentDTO, error) {
	a, err := u.ownedPayable(ctx, p, applicationID)
	if err != nil {
		return nil, err
	}
	open, err := u.payments.ListOpenByLoan(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	for i := range open {
		if open[i].Method == domain.MethodCard && open[i].Status == domain.StatusPending && open[i].Amount.Equal(a.ProcessingFee) {
			dto := toDTO(&open[i])
			return &dto, nil
		}
	}

	cur, err := u.settings.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}
	pay := &domain.Payment{
		PaymentID:         id.NewID32(),
		Reference:         uuid.NewString(),
		LoanApplicationID: a.ID,
		UserID:            a.UserID,
		Amount:            a.ProcessingFee,
		Currency:          cur,
		Method:            domain.MethodCard,
		Provider:          domain.ProviderCardGateway,
		Status:            domain.StatusPending,
	}
	// created outside the transaction; an orphaned intent is never referenced
	intent, err := u.card.CreateIntent(ctx, CardIntentRequest{
		Amount:    pay.Amount,
		Currency:  cur,
		Reference: pay.Reference,
		PaymentID: pay.PaymentID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	pay.ProviderRef = intent.ID
	pay.ClientSecret = intent.ClientSecret

	var e effects
	err = u.uow.WithinLoanTx(ctx, a.ApplicationID, func(r uow.Repos, l *domainLoan.Application) error {
		if err := u.lockFee(ctx, r, l, &e); err != nil {
			return err
		}
		return r.Payments.Create(ctx, pay)
	})
	if err != nil {
		return nil, err
	}
	e.payment(pay)
	u.flush(ctx, &e)

	dto := toDTO(pay)
	return &dto, nil
}

// HandleCardWebhook applies a signed gateway event. Unknown event types and
// intents are acknowledged and ignored; replays are no-ops.
func (u *Usecase) HandleCardWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.card.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	entry := u.log.WithFields(logrus.Fields{"event": ev.ID, "type": ev.Type, "intent": ev.IntentID})
	if ev.Type != CardEventSucceeded && ev.Type != CardEventFailed {
		entry.Debug("card event ignored")
		return nil
	}

	pay, err := u.payments.GetByProviderRef(ctx, domain.ProviderCardGateway, ev.IntentID)
	if errors.Is(err, domain.ErrNotFound) {
		entry.Warn("card event for unknown intent")
		return nil
	}
	if err != nil {
		return err
	}

	var e effects
	err = u.withPayment(ctx, pay.PaymentID, func(r uow.Repos, a *domainLoan.Application, locked *domain.Payment) error {
		if ev.Type == CardEventSucceeded {
			return u.succeed(ctx, r, a, locked, &e)
		}
		reason := strings.TrimSpace(ev.FailureMessage)
		if reason == "" {
			reason = "card payment declined"
		}
		return u.fail(ctx, r, a, locked, domain.StatusFailed, reason, &e)
	})
	if err != nil {
		return err
	}
	u.flush(ctx, &e)
	entry.Info("card event applied")
	return nil
}

// Get returns a payment to the borrower who made it or to an admin.
func (u *Usecase) Get(ctx context.Context, p domainUser.Principal, paymentID string) (*PaymentDTO, error) {
	pay, err := u.payments.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if pay.UserID != p.ID && !p.IsAdmin() {
		return nil, domainLoan.ErrForbidden
	}
	dto := toDTO(pay)
	return &dto, nil
}

func (u *Usecase) ListForLoan(ctx context.Context, p domainUser.Principal, applicationID string) ([]PaymentDTO, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.ID && !p.IsAdmin() {
		return nil, domainLoan.ErrForbidden
	}
	items, err := u.payments.ListByLoan(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentDTO, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out, nil
}
