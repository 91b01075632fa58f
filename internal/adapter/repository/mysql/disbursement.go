package mysql

import (
	"context"

	disbDomain "lending-backend/internal/domain/disbursement"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DisbursementRepository struct{ db *gorm.DB }

func NewDisbursementRepository(db *gorm.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

func (r *DisbursementRepository) Create(ctx context.Context, d *disbDomain.Disbursement) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DisbursementRepository) Save(ctx context.Context, d *disbDomain.Disbursement) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DisbursementRepository) GetByDisbursementID(ctx context.Context, disbursementID string) (*disbDomain.Disbursement, error) {
	var out disbDomain.Disbursement
	err := forUpdate(r.db.WithContext(ctx)).Where("disbursement_id = ?", disbursementID).First(&out).Error
	if err != nil {
		return nil, notFound(err, disbDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *DisbursementRepository) GetByLoanID(ctx context.Context, loanID uint64) (*disbDomain.Disbursement, error) {
	var out disbDomain.Disbursement
	err := r.db.WithContext(ctx).Where("loan_application_id = ?", loanID).First(&out).Error
	if err != nil {
		return nil, notFound(err, disbDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *DisbursementRepository) List(ctx context.Context, status disbDomain.Status, limit, offset int) ([]disbDomain.Disbursement, int64, error) {
	limit, offset = page(limit, offset)
	q := r.db.WithContext(ctx).Model(&disbDomain.Disbursement{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []disbDomain.Disbursement
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *DisbursementRepository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	return sumColumn(ctx, r.db.Model(&disbDomain.Disbursement{}).
		Where("status = ?", disbDomain.StatusCompleted), "amount")
}
