package disbursement

import (
	"context"
	"errors"
	"strings"
	"time"

	"lending-backend/internal/domain/audit"
	domain "lending-backend/internal/domain/disbursement"
	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	domainReferral "lending-backend/internal/domain/referral"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/metrics"
	notificationUC "lending-backend/internal/usecase/notification"
	"lending-backend/pkg/id"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrReasonRequired = errors.New("a reason is required")
	ErrBankDetails    = errors.New("bank name, account holder and account number are required")
)

type settings interface {
	BaseCurrency(ctx context.Context) (string, error)
	Decimal(ctx context.Context, key string) (decimal.Decimal, error)
}

type notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

type Usecase struct {
	repo     domain.Repository
	loans    domainLoan.Repository
	uow      uow.UnitOfWork
	settings settings
	notify   notifier
	now      func() time.Time
}

func NewUsecase(repo domain.Repository, loans domainLoan.Repository, tx uow.UnitOfWork, s settings, n notifier) *Usecase {
	return &Usecase{repo: repo, loans: loans, uow: tx, settings: s, notify: n, now: time.Now}
}

// Request stores the borrower's bank details once the fee is paid. A failed
// disbursement may be resubmitted with new details.
func (u *Usecase) Request(ctx context.Context, p domainUser.Principal, in RequestInput) (*DisbursementDTO, error) {
	in.BankName = strings.TrimSpace(in.BankName)
	in.AccountHolderName = strings.TrimSpace(in.AccountHolderName)
	in.AccountNumber = strings.ReplaceAll(strings.TrimSpace(in.AccountNumber), " ", "")
	in.RoutingNumber = strings.TrimSpace(in.RoutingNumber)
	if in.BankName == "" || in.AccountHolderName == "" || in.AccountNumber == "" {
		return nil, ErrBankDetails
	}
	cur, err := u.settings.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}

	var out DisbursementDTO
	err = u.uow.WithinLoanTx(ctx, in.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
		if a.UserID != p.ID {
			return domainLoan.ErrForbidden
		}
		switch a.Status {
		case domainLoan.StatusFeePaid:
		case domainLoan.StatusApproved, domainLoan.StatusFeePending:
			return domainLoan.ErrFeeNotPaid
		case domainLoan.StatusDisbursed:
			return domain.ErrAlreadyRequested
		default:
			return domainLoan.ErrInvalidTransition
		}
		paid, err := r.Payments.HasSucceeded(ctx, a.ID)
		if err != nil {
			return err
		}
		if !paid {
			return domainLoan.ErrFeeNotPaid
		}

		d, err := r.Disbursements.GetByLoanID(ctx, a.ID)
		switch {
		case err == nil:
			if d.Status != domain.StatusFailed {
				return domain.ErrAlreadyRequested
			}
			d.Status = domain.StatusPending
			d.FailureReason = ""
			d.Reference = ""
			d.ProcessedBy = nil
		case errors.Is(err, domain.ErrNotFound):
			d = &domain.Disbursement{
				DisbursementID:    id.NewID32(),
				LoanApplicationID: a.ID,
				UserID:            a.UserID,
				Status:            domain.StatusPending,
			}
		default:
			return err
		}
		d.Amount = a.ApprovedAmount
		d.Currency = cur
		d.BankName = in.BankName
		d.AccountHolderName = in.AccountHolderName
		d.AccountNumber = in.AccountNumber
		d.RoutingNumber = in.RoutingNumber

		if d.ID == 0 {
			err = r.Disbursements.Create(ctx, d)
		} else {
			err = r.Disbursements.Save(ctx, d)
		}
		if err != nil {
			return err
		}
		out = toDTO(d, a.ApplicationID, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForLoan shows the disbursement to its borrower (masked) or to an admin.
func (u *Usecase) GetForLoan(ctx context.Context, p domainUser.Principal, applicationID string) (*DisbursementDTO, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.ID && !p.IsAdmin() {
		return nil, domainLoan.ErrForbidden
	}
	d, err := u.repo.GetByLoanID(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	out := toDTO(d, a.ApplicationID, p.IsAdmin())
	return &out, nil
}

// List is the admin queue; an empty status means all.
func (u *Usecase) List(ctx context.Context, status domain.Status, limit, offset int) (*ListDTO, error) {
	items, total, err := u.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &ListDTO{Items: make([]DisbursementDTO, 0, len(items)), Total: total, Limit: limit, Offset: offset}
	for i := range items {
		appID := ""
		if a, err := u.loans.GetByID(ctx, items[i].LoanApplicationID); err == nil {
			appID = a.ApplicationID
		}
		out.Items = append(out.Items, toDTO(&items[i], appID, true))
	}
	return out, nil
}

// withDisbursement locks the owning loan and then the disbursement row.
func (u *Usecase) withDisbursement(ctx context.Context, disbursementID string, fn func(r uow.Repos, a *domainLoan.Application, d *domain.Disbursement) error) error {
	pre, err := u.repo.GetByDisbursementID(ctx, disbursementID)
	if err != nil {
		return err
	}
	owner, err := u.loans.GetByID(ctx, pre.LoanApplicationID)
	if err != nil {
		return err
	}
	return u.uow.WithinLoanTx(ctx, owner.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
		d, err := r.Disbursements.GetByDisbursementID(ctx, disbursementID)
		if err != nil {
			return err
		}
		return fn(r, a, d)
	})
}

func auditDisbursement(ctx context.Context, r uow.Repos, p domainUser.Principal, action string, d *domain.Disbursement, a *domainLoan.Application, extra map[string]any) error {
	details := map[string]any{"application_id": a.ApplicationID, "amount": d.Amount.StringFixed(2)}
	for k, v := range extra {
		details[k] = v
	}
	return r.Audits.Create(ctx, audit.NewLog(audit.Entry{
		ActorID:    p.ID,
		Action:     action,
		EntityType: "disbursement",
		EntityID:   d.DisbursementID,
		Details:    details,
		IP:         p.IP,
	}))
}

func (u *Usecase) MarkProcessing(ctx context.Context, p domainUser.Principal, in AdminInput) (*DisbursementDTO, error) {
	var out DisbursementDTO
	err := u.withDisbursement(ctx, in.DisbursementID, func(r uow.Repos, a *domainLoan.Application, d *domain.Disbursement) error {
		if !domain.CanTransition(d.Status, domain.StatusProcessing) {
			return domain.ErrInvalidTransition
		}
		d.Status = domain.StatusProcessing
		d.Reference = strings.TrimSpace(in.Reference)
		if d.Reference == "" {
			d.Reference = uuid.NewString()
		}
		staff := p.ID
		d.ProcessedBy = &staff
		if err := r.Disbursements.Save(ctx, d); err != nil {
			return err
		}
		out = toDTO(d, a.ApplicationID, true)
		return auditDisbursement(ctx, r, p, audit.ActionDisbursementStart, d, a, map[string]any{"reference": d.Reference})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete marks the transfer done, the loan disbursed and qualifies the
// borrower's referral if one is pending.
func (u *Usecase) Complete(ctx context.Context, p domainUser.Principal, in AdminInput) (*DisbursementDTO, error) {
	reward, err := u.settings.Decimal(ctx, setting.KeyReferralReward)
	if err != nil {
		return nil, err
	}

	var (
		out      DisbursementDTO
		borrower uint64
		referrer uint64
	)
	err = u.withDisbursement(ctx, in.DisbursementID, func(r uow.Repos, a *domainLoan.Application, d *domain.Disbursement) error {
		if !domain.CanTransition(d.Status, domain.StatusCompleted) {
			return domain.ErrInvalidTransition
		}
		now := u.now().UTC()
		if err := a.Transition(domainLoan.StatusDisbursed, now); err != nil {
			return err
		}
		d.Status = domain.StatusCompleted
		d.CompletedAt = &now
		if ref := strings.TrimSpace(in.Reference); ref != "" {
			d.Reference = ref
		}
		staff := p.ID
		d.ProcessedBy = &staff
		if err := r.Disbursements.Save(ctx, d); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}

		ref, err := r.Referrals.GetByReferredID(ctx, a.UserID)
		switch {
		case err == nil:
			if ref.Qualify(reward, now) == nil {
				if err := r.Referrals.Save(ctx, ref); err != nil {
					return err
				}
				referrer = ref.ReferrerID
			}
		case !errors.Is(err, domainReferral.ErrNotFound):
			return err
		}

		borrower = a.UserID
		out = toDTO(d, a.ApplicationID, true)
		return auditDisbursement(ctx, r, p, audit.ActionDisbursementDone, d, a, map[string]any{"reference": d.Reference})
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransition(string(domainLoan.StatusDisbursed))
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     borrower,
		Kind:       domainNotification.KindDisbursed,
		Title:      "Funds sent",
		Body:       "Your loan of " + out.Amount.StringFixed(2) + " " + out.Currency + " was sent to your account ending " + lastFour(out.AccountNumber) + ".",
		SMS:        true,
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	if referrer != 0 {
		u.notify.Notify(ctx, notificationUC.Message{
			UserID:     referrer,
			Kind:       domainNotification.KindReferralQualified,
			Title:      "Referral reward earned",
			Body:       "A friend you referred received their first loan. You earned " + reward.StringFixed(2) + ".",
			EntityType: "referral",
		})
	}
	return &out, nil
}

func (u *Usecase) Fail(ctx context.Context, p domainUser.Principal, in AdminInput) (*DisbursementDTO, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var (
		out      DisbursementDTO
		borrower uint64
	)
	err := u.withDisbursement(ctx, in.DisbursementID, func(r uow.Repos, a *domainLoan.Application, d *domain.Disbursement) error {
		if !domain.CanTransition(d.Status, domain.StatusFailed) {
			return domain.ErrInvalidTransition
		}
		d.Status = domain.StatusFailed
		d.FailureReason = reason
		staff := p.ID
		d.ProcessedBy = &staff
		if err := r.Disbursements.Save(ctx, d); err != nil {
			return err
		}
		borrower = a.UserID
		out = toDTO(d, a.ApplicationID, true)
		return auditDisbursement(ctx, r, p, audit.ActionDisbursementFailed, d, a, map[string]any{"reason": reason})
	})
	if err != nil {
		return nil, err
	}

	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     borrower,
		Kind:       domainNotification.KindDisbursementFailed,
		Title:      "Transfer failed",
		Body:       "We could not send your funds (" + reason + "). Please check and resubmit your bank details.",
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	return &out, nil
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
