package disbursement

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, d *Disbursement) error
	GetByDisbursementID(ctx context.Context, disbursementID string) (*Disbursement, error)
	GetByLoanID(ctx context.Context, loanID uint64) (*Disbursement, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Disbursement, int64, error)
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
	Save(ctx context.Context, d *Disbursement) error
}
