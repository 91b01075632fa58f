package setting

import "context"

type Repository interface {
	Get(ctx context.Context, key string) (*SystemSetting, error)
	List(ctx context.Context) ([]SystemSetting, error)
	Upsert(ctx context.Context, s *SystemSetting) error
}
