package auditmock

import (
	"context"
	"sync"

	domain "lending-backend/internal/domain/audit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo records every created log. CreateErr, when set, fails Create.
type Repo struct {
	mu        sync.Mutex
	Logs      []domain.Log
	CreateErr error
}

func (r *Repo) Create(_ context.Context, l *domain.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	l.ID = uint64(len(r.Logs) + 1)
	r.Logs = append(r.Logs, *l)
	return nil
}

func (r *Repo) List(_ context.Context, f domain.Filter) ([]domain.Log, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Log
	for _, l := range r.Logs {
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && l.EntityID != f.EntityID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// Actions lists recorded actions in order.
func (r *Repo) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Logs))
	for i, l := range r.Logs {
		out[i] = l.Action
	}
	return out
}
