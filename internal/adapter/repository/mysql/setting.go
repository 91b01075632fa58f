package mysql

import (
	"context"

	settingDomain "lending-backend/internal/domain/setting"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct{ db *gorm.DB }

func NewSettingRepository(db *gorm.DB) *SettingRepository { return &SettingRepository{db: db} }

func (r *SettingRepository) Get(ctx context.Context, key string) (*settingDomain.SystemSetting, error) {
	var out settingDomain.SystemSetting
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&out).Error
	if err != nil {
		return nil, notFound(err, settingDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *SettingRepository) List(ctx context.Context) ([]settingDomain.SystemSetting, error) {
	var out []settingDomain.SystemSetting
	err := r.db.WithContext(ctx).Order("`key`").Find(&out).Error
	return out, err
}

// Upsert inserts or overwrites value, description and updated_by by key.
func (r *SettingRepository) Upsert(ctx context.Context, s *settingDomain.SystemSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
	}).Create(s).Error
}
