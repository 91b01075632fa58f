package referral

import "context"

type Repository interface {
	Create(ctx context.Context, r *Referral) error
	GetByID(ctx context.Context, id uint64) (*Referral, error)
	GetByReferredID(ctx context.Context, referredID uint64) (*Referral, error)
	ListByReferrer(ctx context.Context, referrerID uint64) ([]Referral, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Referral, int64, error)
	Stats(ctx context.Context, referrerID uint64) (Stats, error)
	Save(ctx context.Context, r *Referral) error
}
