package uow

import (
	"context"

	"lending-backend/internal/domain/approval"
	"lending-backend/internal/domain/audit"
	"lending-backend/internal/domain/disbursement"
	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/payment"
	"lending-backend/internal/domain/referral"
	"lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/support"
	"lending-backend/internal/domain/user"
)

// Repos are bound to one transaction.
type Repos struct {
	Users         user.Repository
	Loans         loan.Repository
	Approvals     approval.Repository
	Payments      payment.Repository
	Disbursements disbursement.Repository
	Referrals     referral.Repository
	Audits        audit.Repository
	Settings      setting.Repository
	Support       support.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, applicationID string, fn func(r Repos, l *loan.Application) error) error
}
