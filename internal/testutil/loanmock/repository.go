package loanmock

import (
	"context"
	"time"

	domain "lending-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Lookups with no func set return domain.ErrNotFound; writes are no-ops.
type Repo struct {
	CreateFn                      func(ctx context.Context, a *domain.Application) error
	GetByApplicationIDFn          func(ctx context.Context, applicationID string) (*domain.Application, error)
	GetByApplicationIDForUpdateFn func(ctx context.Context, applicationID string) (*domain.Application, error)
	GetByIDFn                     func(ctx context.Context, id uint64) (*domain.Application, error)
	GetActiveByUserIDFn           func(ctx context.Context, userID uint64) (*domain.Application, error)
	ListFn                        func(ctx context.Context, f domain.ListFilter) ([]domain.Application, int64, error)
	CountByStatusFn               func(ctx context.Context) (map[domain.Status]int64, error)
	SumApprovedFn                 func(ctx context.Context) (decimal.Decimal, error)
	ListAwaitingFeeFn             func(ctx context.Context, before time.Time) ([]domain.Application, error)
	SaveFn                        func(ctx context.Context, a *domain.Application) error
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetByApplicationIDForUpdateFn != nil {
		return m.GetByApplicationIDForUpdateFn(ctx, applicationID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Application, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetActiveByUserID(ctx context.Context, userID uint64) (*domain.Application, error) {
	if m.GetActiveByUserIDFn != nil {
		return m.GetActiveByUserIDFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Application, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *Repo) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return map[domain.Status]int64{}, nil
}

func (m *Repo) SumApproved(ctx context.Context) (decimal.Decimal, error) {
	if m.SumApprovedFn != nil {
		return m.SumApprovedFn(ctx)
	}
	return decimal.Zero, nil
}

func (m *Repo) ListAwaitingFee(ctx context.Context, before time.Time) ([]domain.Application, error) {
	if m.ListAwaitingFeeFn != nil {
		return m.ListAwaitingFeeFn(ctx, before)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}
