package mysql

import (
	"context"

	refDomain "lending-backend/internal/domain/referral"

	"gorm.io/gorm"
)

type ReferralRepository struct{ db *gorm.DB }

func NewReferralRepository(db *gorm.DB) *ReferralRepository { return &ReferralRepository{db: db} }

func (r *ReferralRepository) Create(ctx context.Context, ref *refDomain.Referral) error {
	return r.db.WithContext(ctx).Create(ref).Error
}

func (r *ReferralRepository) Save(ctx context.Context, ref *refDomain.Referral) error {
	return r.db.WithContext(ctx).Save(ref).Error
}

func (r *ReferralRepository) GetByID(ctx context.Context, id uint64) (*refDomain.Referral, error) {
	var out refDomain.Referral
	if err := forUpdate(r.db.WithContext(ctx)).First(&out, id).Error; err != nil {
		return nil, notFound(err, refDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ReferralRepository) GetByReferredID(ctx context.Context, referredID uint64) (*refDomain.Referral, error) {
	var out refDomain.Referral
	err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&out).Error
	if err != nil {
		return nil, notFound(err, refDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID uint64) ([]refDomain.Referral, error) {
	var out []refDomain.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).
		Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *ReferralRepository) ListByStatus(ctx context.Context, status refDomain.Status, limit, offset int) ([]refDomain.Referral, int64, error) {
	limit, offset = page(limit, offset)
	q := r.db.WithContext(ctx).Model(&refDomain.Referral{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []refDomain.Referral
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (r *ReferralRepository) Stats(ctx context.Context, referrerID uint64) (refDomain.Stats, error) {
	var rows []struct {
		Status refDomain.Status
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&refDomain.Referral{}).
		Select("status, COUNT(*) AS n").
		Where("referrer_id = ?", referrerID).
		Group("status").Scan(&rows).Error
	if err != nil {
		return refDomain.Stats{}, err
	}
	var st refDomain.Stats
	for _, row := range rows {
		st.Invited += row.N
		switch row.Status {
		case refDomain.StatusQualified:
			st.Qualified += row.N
		case refDomain.StatusRewarded:
			// rewarded referrals were qualified first
			st.Qualified += row.N
			st.Rewarded += row.N
		}
	}
	st.TotalEarned, err = sumColumn(ctx, r.db.Model(&refDomain.Referral{}).
		Where("referrer_id = ? AND status = ?", referrerID, refDomain.StatusRewarded), "reward_amount")
	return st, err
}
