package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint64) (*User, error)
	// Row lock; serializes per-user writes such as applying for a loan
	GetByIDForUpdate(ctx context.Context, id uint64) (*User, error)
	GetByUserID(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	Save(ctx context.Context, u *User) error
	// Soft delete, recording the public id of whoever deleted the row
	Delete(ctx context.Context, u *User, deletedBy string) error
}
