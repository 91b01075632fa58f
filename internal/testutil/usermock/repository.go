package usermock

import (
	"context"

	domain "lending-backend/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Lookups with no func set return domain.ErrNotFound; writes are no-ops.
type Repo struct {
	CreateFn            func(ctx context.Context, u *domain.User) error
	GetByIDFn           func(ctx context.Context, id uint64) (*domain.User, error)
	GetByIDForUpdateFn  func(ctx context.Context, id uint64) (*domain.User, error)
	GetByUserIDFn       func(ctx context.Context, userID string) (*domain.User, error)
	GetByEmailFn        func(ctx context.Context, email string) (*domain.User, error)
	GetByReferralCodeFn func(ctx context.Context, code string) (*domain.User, error)
	SaveFn              func(ctx context.Context, u *domain.User) error
	DeleteFn            func(ctx context.Context, u *domain.User, deletedBy string) error
}

// Existing returns a Repo whose id lookups all resolve to u.
func Existing(u *domain.User) *Repo {
	get := func(context.Context, uint64) (*domain.User, error) { return u, nil }
	return &Repo{GetByIDFn: get, GetByIDForUpdateFn: get}
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.User, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	if m.GetByReferralCodeFn != nil {
		return m.GetByReferralCodeFn(ctx, code)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, u *domain.User) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, u)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, u *domain.User, deletedBy string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, u, deletedBy)
	}
	return nil
}
