package settingmock

import (
	"context"
	"sort"
	"sync"

	domain "lending-backend/internal/domain/setting"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a map-backed domain.Repository. Missing keys return domain.ErrNotFound,
// so readers fall back to the built-in defaults.
type Repo struct {
	mu     sync.Mutex
	values map[string]domain.SystemSetting
	Err    error
}

func New(values map[string]string) *Repo {
	r := &Repo{values: map[string]domain.SystemSetting{}}
	for k, v := range values {
		r.values[k] = domain.SystemSetting{Key: k, Value: v}
	}
	return r
}

func (r *Repo) Get(_ context.Context, key string) (*domain.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *Repo) List(_ context.Context) ([]domain.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]domain.SystemSetting, 0, len(r.values))
	for _, s := range r.values {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *Repo) Upsert(_ context.Context, s *domain.SystemSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.values[s.Key] = *s
	return nil
}
