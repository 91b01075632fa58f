package mysql

import (
	"context"

	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Users:         &UserRepository{db: tx},
		Loans:         &LoanRepository{db: tx},
		Approvals:     &ApprovalRepository{db: tx},
		Payments:      &PaymentRepository{db: tx},
		Disbursements: &DisbursementRepository{db: tx},
		Referrals:     &ReferralRepository{db: tx},
		Audits:        &AuditRepository{db: tx},
		Settings:      &SettingRepository{db: tx},
		Support:       &SupportRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, applicationID string, fn func(r uow.Repos, l *loan.Application) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByApplicationIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
