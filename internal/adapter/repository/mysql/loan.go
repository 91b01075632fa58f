package mysql

import (
	"context"
	"time"

	loanDomain "lending-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *LoanRepository) Tx(ctx context.Context, fn func(repo loanDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LoanRepository{db: tx})
	})
}

func (r *LoanRepository) Create(ctx context.Context, a *loanDomain.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *LoanRepository) Save(ctx context.Context, a *loanDomain.Application) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *LoanRepository) GetByApplicationID(ctx context.Context, applicationID string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	err := forUpdate(r.db.WithContext(ctx)).Where("application_id = ?", applicationID).First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Application, error) {
	var out loanDomain.Application
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

// GetActiveByUserID returns the newest non-terminal application.
func (r *LoanRepository) GetActiveByUserID(ctx context.Context, userID uint64) (*loanDomain.Application, error) {
	var out loanDomain.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status NOT IN ?", userID,
			[]loanDomain.Status{loanDomain.StatusRejected, loanDomain.StatusDisbursed}).
		Order("created_at DESC, id DESC").
		First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Application{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit, offset := page(f.Limit, f.Offset)
	var out []loanDomain.Application
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *LoanRepository) CountByStatus(ctx context.Context) (map[loanDomain.Status]int64, error) {
	var rows []struct {
		Status loanDomain.Status
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&loanDomain.Application{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[loanDomain.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *LoanRepository) ListAwaitingFee(ctx context.Context, before time.Time) ([]loanDomain.Application, error) {
	var out []loanDomain.Application
	err := r.db.WithContext(ctx).
		Where("status IN ?", []loanDomain.Status{loanDomain.StatusApproved, loanDomain.StatusFeePending}).
		Where("status_updated_at < ?", before).
		Where("fee_reminder_sent_at IS NULL OR fee_reminder_sent_at < ?", before).
		Order("id").Limit(500).
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) SumApproved(ctx context.Context) (decimal.Decimal, error) {
	return sumColumn(ctx, r.db.Model(&loanDomain.Application{}).
		Where("status IN ?", []loanDomain.Status{
			loanDomain.StatusApproved, loanDomain.StatusFeePending,
			loanDomain.StatusFeePaid, loanDomain.StatusDisbursed,
		}), "approved_amount")
}
