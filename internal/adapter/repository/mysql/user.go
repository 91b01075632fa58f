package mysql

import (
	"context"
	"strings"

	userDomain "lending-backend/internal/domain/user"

	"gorm.io/gorm"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

// Create maps unique violations on email and referral code to domain errors.
func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Create(u).Error
	switch {
	case uniqueViolation(err, "referral_code"):
		return userDomain.ErrReferralCodeTaken
	case uniqueViolation(err, "email"):
		return userDomain.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) Save(ctx context.Context, u *userDomain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*userDomain.User, error) {
	var out userDomain.User
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*userDomain.User, error) {
	var out userDomain.User
	if err := forUpdate(r.db.WithContext(ctx)).First(&out, id).Error; err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*userDomain.User, error) {
	return r.first(ctx, "referral_code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *UserRepository) first(ctx context.Context, cond string, arg any) (*userDomain.User, error) {
	var out userDomain.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&out).Error; err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

// Delete soft-deletes and frees the unique email for re-registration.
func (r *UserRepository) Delete(ctx context.Context, u *userDomain.User, deletedBy string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(u).Updates(map[string]any{
		"deleted_by": deletedBy,
		"email":      "deleted+" + u.UserID + "@invalid",
		"is_active":  false,
	}).Error; err != nil {
		return err
	}
	return db.Delete(u).Error
}
