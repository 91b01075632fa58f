package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ListFilter struct {
	Status Status
	UserID uint64
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByApplicationID(ctx context.Context, applicationID string) (*Application, error)
	// Row lock for state transitions
	GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*Application, error)
	GetByID(ctx context.Context, id uint64) (*Application, error)
	GetActiveByUserID(ctx context.Context, userID uint64) (*Application, error)
	List(ctx context.Context, f ListFilter) ([]Application, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	// Sum of approved_amount over applications that reached approval
	SumApproved(ctx context.Context) (decimal.Decimal, error)
	// approved/fee_pending loans unchanged since before, not reminded since before
	ListAwaitingFee(ctx context.Context, before time.Time) ([]Application, error)
	Save(ctx context.Context, a *Application) error
}
