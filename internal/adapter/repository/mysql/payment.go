package mysql

import (
	"context"
	"time"

	paymentDomain "lending-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&out).Error
	if err != nil {
		return nil, notFound(err, paymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	err := forUpdate(r.db.WithContext(ctx)).Where("payment_id = ?", paymentID).First(&out).Error
	if err != nil {
		return nil, notFound(err, paymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, provider, ref string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	err := forUpdate(r.db.WithContext(ctx)).
		Where("provider = ? AND provider_ref = ?", provider, ref).First(&out).Error
	if err != nil {
		return nil, notFound(err, paymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]paymentDomain.Payment, error) {
	var out []paymentDomain.Payment
	err := r.db.WithContext(ctx).Where("loan_application_id = ?", loanID).
		Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListOpenByLoan(ctx context.Context, loanID uint64) ([]paymentDomain.Payment, error) {
	var out []paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ? AND status IN ?", loanID,
			[]paymentDomain.Status{paymentDomain.StatusPending, paymentDomain.StatusProcessing}).
		Order("id").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) HasSucceeded(ctx context.Context, loanID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&paymentDomain.Payment{}).
		Where("loan_application_id = ? AND status = ?", loanID, paymentDomain.StatusSucceeded).
		Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) TxHashExists(ctx context.Context, txHash string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&paymentDomain.Payment{}).
		Where("tx_hash = ?", txHash).Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) ListExpiredCrypto(ctx context.Context, before time.Time) ([]paymentDomain.Payment, error) {
	var out []paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("method = ? AND status = ? AND expires_at < ?",
			paymentDomain.MethodCrypto, paymentDomain.StatusPending, before).
		Order("id").Limit(500).Find(&out).Error
	return out, err
}

func (r *PaymentRepository) SumSucceeded(ctx context.Context) (decimal.Decimal, error) {
	return sumColumn(ctx, r.db.Model(&paymentDomain.Payment{}).
		Where("status = ?", paymentDomain.StatusSucceeded), "amount")
}

// sumColumn reads SUM(col) as a string so no precision is lost to float64.
func sumColumn(ctx context.Context, q *gorm.DB, col string) (decimal.Decimal, error) {
	var s *string
	row := q.WithContext(ctx).Select("CAST(COALESCE(SUM(" + col + "), 0) AS CHAR)").Row()
	if err := row.Scan(&s); err != nil {
		return decimal.Zero, err
	}
	if s == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*s)
}
