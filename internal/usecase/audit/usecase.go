package audit

import (
	"context"
	"time"

	domain "lending-backend/internal/domain/audit"
)

type LogDTO struct {
	ID         uint64    `json:"id"`
	ActorID    *uint64   `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListDTO struct {
	Items []LogDTO `json:"items"`
	Total int64    `json:"total"`
}

type Usecase struct{ repo domain.Repository }

func NewUsecase(repo domain.Repository) *Usecase { return &Usecase{repo: repo} }

// List returns the newest rows first.
func (u *Usecase) List(ctx context.Context, f domain.Filter) (*ListDTO, error) {
	items, total, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &ListDTO{Items: make([]LogDTO, 0, len(items)), Total: total}
	for _, l := range items {
		out.Items = append(out.Items, LogDTO{
			ID: l.ID, ActorID: l.ActorID, Action: l.Action, EntityType: l.EntityType,
			EntityID: l.EntityID, Details: l.Details, IPAddress: l.IPAddress, CreatedAt: l.CreatedAt,
		})
	}
	return out, nil
}
