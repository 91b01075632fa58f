package uowmock

import (
	"context"
	"errors"

	"lending-backend/internal/domain/loan"
	"lending-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, applicationID string, fn func(r uow.Repos, l *loan.Application) error) error
}

// Passthrough runs callbacks directly against repos. WithinLoanTx loads the
// application through repos.Loans.GetByApplicationIDForUpdate like the real one.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinLoanTxFn: func(ctx context.Context, applicationID string, fn func(uow.Repos, *loan.Application) error) error {
			l, err := repos.Loans.GetByApplicationIDForUpdate(ctx, applicationID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, applicationID string, fn func(r uow.Repos, l *loan.Application) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, applicationID, fn)
	}
	return errUnimplemented
}
