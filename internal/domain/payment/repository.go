package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	GetByPaymentIDForUpdate(ctx context.Context, paymentID string) (*Payment, error)
	GetByProviderRef(ctx context.Context, provider, ref string) (*Payment, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]Payment, error)
	// Open (pending/processing) payments for a loan
	ListOpenByLoan(ctx context.Context, loanID uint64) ([]Payment, error)
	HasSucceeded(ctx context.Context, loanID uint64) (bool, error)
	TxHashExists(ctx context.Context, txHash string) (bool, error)
	// Pending crypto quotes with expires_at before `before`
	ListExpiredCrypto(ctx context.Context, before time.Time) ([]Payment, error)
	SumSucceeded(ctx context.Context) (decimal.Decimal, error)
	Save(ctx context.Context, p *Payment) error
}
