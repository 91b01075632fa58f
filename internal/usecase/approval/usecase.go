package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	domainApproval "lending-backend/internal/domain/approval"
	"lending-backend/internal/domain/audit"
	domainLoan "lending-backend/internal/domain/loan"
	domainNotification "lending-backend/internal/domain/notification"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/internal/infrastructure/metrics"
	loanUC "lending-backend/internal/usecase/loan"
	notificationUC "lending-backend/internal/usecase/notification"
	"lending-backend/pkg/id"
	"lending-backend/pkg/money"

	"github.com/shopspring/decimal"
)

var ErrReasonRequired = errors.New("a reason is required")

type settings interface {
	FeeSchedule(ctx context.Context) (money.FeeSchedule, error)
	Decimal(ctx context.Context, key string) (decimal.Decimal, error)
	Bool(ctx context.Context, key string) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, m notificationUC.Message)
}

// Usecase holds the admin review actions. Every action writes its audit row in
// the same transaction as the loan mutation.
type Usecase struct {
	uow      uow.UnitOfWork
	settings settings
	notify   notifier
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, s settings, n notifier) *Usecase {
	return &Usecase{uow: tx, settings: s, notify: n, now: time.Now}
}

func auditLoan(ctx context.Context, r uow.Repos, p domainUser.Principal, action string, a *domainLoan.Application, details map[string]any) error {
	return r.Audits.Create(ctx, audit.NewLog(audit.Entry{
		ActorID:    p.ID,
		Action:     action,
		EntityType: "loan",
		EntityID:   a.ApplicationID,
		Details:    details,
		IP:         p.IP,
	}))
}

func (u *Usecase) stampReview(a *domainLoan.Application, p domainUser.Principal, at time.Time) {
	reviewer := p.ID
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &at
}

// StartReview moves a pending application to under_review.
func (u *Usecase) StartReview(ctx context.Context, p domainUser.Principal, applicationID string) (*loanUC.ApplicationDTO, error) {
	var out loanUC.ApplicationDTO
	var userID uint64
	err := u.uow.WithinLoanTx(ctx, applicationID, func(r uow.Repos, a *domainLoan.Application) error {
		if a.Status != domainLoan.StatusPending {
			return domainLoan.ErrInvalidTransition
		}
		now := u.now().UTC()
		if err := a.Transition(domainLoan.StatusUnderReview, now); err != nil {
			return err
		}
		u.stampReview(a, p, now)
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		userID = a.UserID
		out = loanUC.ToDTO(a)
		return auditLoan(ctx, r, p, audit.ActionLoanReviewStarted, a, nil)
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransition(string(domainLoan.StatusUnderReview))
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     userID,
		Kind:       domainNotification.KindUnderReview,
		Title:      "Application under review",
		Body:       "An officer has started reviewing your loan application.",
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	return &out, nil
}

// Approve records the admin decision and prices the processing fee.
func (u *Usecase) Approve(ctx context.Context, p domainUser.Principal, in ApproveInput) (*ApprovalDTO, error) {
	fees, err := u.settings.FeeSchedule(ctx)
	if err != nil {
		return nil, err
	}
	requireID, err := u.settings.Bool(ctx, setting.KeyRequireIDVerification)
	if err != nil {
		return nil, err
	}
	rate := decimal.Zero
	if in.InterestRate != nil {
		rate = *in.InterestRate
	} else if rate, err = u.settings.Decimal(ctx, setting.KeyDefaultInterestRate); err != nil {
		return nil, err
	}
	amount := money.Round2(in.ApprovedAmount)
	if amount.Sign() <= 0 || rate.Sign() < 0 {
		return nil, domainLoan.ErrAmountOutOfRange
	}

	var dto *ApprovalDTO
	var userID uint64
	err = u.uow.WithinLoanTx(ctx, in.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
		// State guard: only under_review → approved
		switch a.Status {
		case domainLoan.StatusUnderReview:
		case domainLoan.StatusApproved, domainLoan.StatusFeePending, domainLoan.StatusFeePaid, domainLoan.StatusDisbursed:
			return domainLoan.ErrAlreadyApproved
		default:
			return domainLoan.ErrInvalidTransition
		}
		if requireID && a.IDVerificationStatus != domainLoan.IDVerified {
			return domainLoan.ErrIDNotVerified
		}
		if amount.GreaterThan(a.RequestedAmount) {
			return domainLoan.ErrApprovedExceedsRequest
		}

		if _, err := r.Approvals.GetByLoanID(ctx, a.ID); err == nil {
			return domainLoan.ErrAlreadyApproved
		} else if !errors.Is(err, domainApproval.ErrNotFound) {
			return err
		}

		now := u.now().UTC()
		ap := &domainApproval.Approval{
			ApprovalID:     id.NewID32(),
			LoanID:         a.ID,
			ReviewerID:     p.ID,
			ApprovedAmount: amount,
			InterestRate:   rate,
			ProcessingFee:  fees.ProcessingFee(amount),
			Note:           strings.TrimSpace(in.Note),
			ApprovalDate:   now,
		}
		if err := r.Approvals.Create(ctx, ap); err != nil {
			return err
		}

		a.ApprovedAmount = ap.ApprovedAmount
		a.InterestRate = ap.InterestRate
		a.ProcessingFee = ap.ProcessingFee
		if err := a.Transition(domainLoan.StatusApproved, now); err != nil {
			return err
		}
		u.stampReview(a, p, now)
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		if err := auditLoan(ctx, r, p, audit.ActionLoanApproved, a, map[string]any{
			"approval_id":     ap.ApprovalID,
			"approved_amount": ap.ApprovedAmount.StringFixed(2),
			"interest_rate":   ap.InterestRate.String(),
			"processing_fee":  ap.ProcessingFee.StringFixed(2),
		}); err != nil {
			return err
		}

		userID = a.UserID
		dto = &ApprovalDTO{
			ApprovalID:     ap.ApprovalID,
			ApprovedAmount: ap.ApprovedAmount,
			InterestRate:   ap.InterestRate,
			ProcessingFee:  ap.ProcessingFee,
			Note:           ap.Note,
			ApprovedAt:     ap.ApprovalDate,
			Application:    loanUC.ToDTO(a),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransition(string(domainLoan.StatusApproved))
	u.notify.Notify(ctx, notificationUC.Message{
		UserID: userID,
		Kind:   domainNotification.KindApproved,
		Title:  "Loan approved",
		Body: "Your loan of " + dto.ApprovedAmount.StringFixed(2) + " was approved. A processing fee of " +
			dto.ProcessingFee.StringFixed(2) + " is due before disbursement.",
		SMS:        true,
		EntityType: "loan",
		EntityID:   dto.Application.ApplicationID,
	})
	return dto, nil
}

// Reject closes a pending or under_review application with a reason.
func (u *Usecase) Reject(ctx context.Context, p domainUser.Principal, in ReviewInput) (*loanUC.ApplicationDTO, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var out loanUC.ApplicationDTO
	var userID uint64
	err := u.uow.WithinLoanTx(ctx, in.ApplicationID, func(r uow.Repos, a *domainLoan.Application) error {
		now := u.now().UTC()
		if err := a.Transition(domainLoan.StatusRejected, now); err != nil {
			return err
		}
		a.RejectionReason = reason
		u.stampReview(a, p, now)
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		userID = a.UserID
		out = loanUC.ToDTO(a)
		return auditLoan(ctx, r, p, audit.ActionLoanRejected, a, map[string]any{"reason": reason})
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransition(string(domainLoan.StatusRejected))
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     userID,
		Kind:       domainNotification.KindRejected,
		Title:      "Loan application declined",
		Body:       "Your loan application was declined: " + reason,
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	return &out, nil
}

func checkIDSubmitted(a *domainLoan.Application) error {
	if a.Status.Terminal() {
		return domainLoan.ErrInvalidTransition
	}
	switch a.IDVerificationStatus {
	case domainLoan.IDSubmitted:
		return nil
	case domainLoan.IDVerified:
		return domainLoan.ErrIDAlreadyVerified
	default:
		return domainLoan.ErrIDNotSubmitted
	}
}

// VerifyID accepts submitted identity documents.
func (u *Usecase) VerifyID(ctx context.Context, p domainUser.Principal, applicationID string) (*loanUC.ApplicationDTO, error) {
	out, userID, err := u.reviewID(ctx, p, applicationID, domainLoan.IDVerified, "")
	if err != nil {
		return nil, err
	}
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     userID,
		Kind:       domainNotification.KindIDVerified,
		Title:      "Identity verified",
		Body:       "Your identity documents were verified.",
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	return out, nil
}

// RejectID sends documents back to the borrower; they may upload new ones.
func (u *Usecase) RejectID(ctx context.Context, p domainUser.Principal, in ReviewInput) (*loanUC.ApplicationDTO, error) {
	note := strings.TrimSpace(in.Reason)
	if note == "" {
		return nil, ErrReasonRequired
	}
	out, userID, err := u.reviewID(ctx, p, in.ApplicationID, domainLoan.IDRejected, note)
	if err != nil {
		return nil, err
	}
	u.notify.Notify(ctx, notificationUC.Message{
		UserID:     userID,
		Kind:       domainNotification.KindIDRejected,
		Title:      "Identity documents rejected",
		Body:       "Please upload new identity documents: " + note,
		EntityType: "loan",
		EntityID:   out.ApplicationID,
	})
	return out, nil
}

func (u *Usecase) reviewID(ctx context.Context, p domainUser.Principal, applicationID string, to domainLoan.IDVerificationStatus, note string) (*loanUC.ApplicationDTO, uint64, error) {
	action := audit.ActionIDVerified
	if to == domainLoan.IDRejected {
		action = audit.ActionIDRejected
	}
	var out loanUC.ApplicationDTO
	var userID uint64
	err := u.uow.WithinLoanTx(ctx, applicationID, func(r uow.Repos, a *domainLoan.Application) error {
		if err := checkIDSubmitted(a); err != nil {
			return err
		}
		a.IDVerificationStatus = to
		a.IDVerificationNote = note
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		userID = a.UserID
		out = loanUC.ToDTO(a)
		var details map[string]any
		if note != "" {
			details = map[string]any{"note": note}
		}
		return auditLoan(ctx, r, p, action, a, details)
	})
	if err != nil {
		return nil, 0, err
	}
	return &out, userID, nil
}
