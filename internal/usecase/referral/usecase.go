package referral

import (
	"context"
	"time"

	"lending-backend/internal/domain/audit"
	domain "lending-backend/internal/domain/referral"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
)

type Usecase struct {
	repo  domain.Repository
	users domainUser.Repository
	uow   uow.UnitOfWork
	now   func() time.Time
}

func NewUsecase(repo domain.Repository, users domainUser.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{repo: repo, users: users, uow: tx, now: time.Now}
}

func (u *Usecase) referredLabel(ctx context.Context, id uint64, reveal bool) string {
	usr, err := u.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	if reveal {
		return usr.Email
	}
	return maskEmail(usr.Email)
}

// Mine returns the caller's code, stats and the people they referred.
func (u *Usecase) Mine(ctx context.Context, userID uint64) (*SummaryDTO, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := u.repo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := u.repo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &SummaryDTO{Code: usr.ReferralCode, Stats: stats, Referrals: make([]ReferralDTO, 0, len(items))}
	for i := range items {
		out.Referrals = append(out.Referrals, toDTO(&items[i], u.referredLabel(ctx, items[i].ReferredID, false)))
	}
	return out, nil
}

// List is the admin view; an empty status means all.
func (u *Usecase) List(ctx context.Context, status domain.Status, limit, offset int) (*ListDTO, error) {
	items, total, err := u.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &ListDTO{Items: make([]ReferralDTO, 0, len(items)), Total: total, Limit: limit, Offset: offset}
	for i := range items {
		out.Items = append(out.Items, toDTO(&items[i], u.referredLabel(ctx, items[i].ReferredID, true)))
	}
	return out, nil
}

// Reward marks a qualified referral as paid out.
func (u *Usecase) Reward(ctx context.Context, p domainUser.Principal, in RewardInput) (*ReferralDTO, error) {
	var ref *domain.Referral
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if ref, err = r.Referrals.GetByID(ctx, in.ReferralID); err != nil {
			return err
		}
		if err := ref.Reward(u.now().UTC()); err != nil {
			return err
		}
		if err := r.Referrals.Save(ctx, ref); err != nil {
			return err
		}
		return r.Audits.Create(ctx, audit.NewLog(audit.Entry{
			ActorID:    p.ID,
			Action:     audit.ActionReferralRewarded,
			EntityType: "referral",
			EntityID:   formatID(ref.ID),
			Details:    map[string]any{"reward_amount": ref.RewardAmount.StringFixed(2), "referrer_id": ref.ReferrerID},
			IP:         p.IP,
		}))
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(ref, u.referredLabel(ctx, ref.ReferredID, true))
	return &dto, nil
}
