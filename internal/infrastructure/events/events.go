// Package events publishes loan lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "lending.events."

type Event struct {
	Kind       string         `json:"kind"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	UserID     string         `json:"user_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (e Event) Subject() string { return subjectPrefix + e.Kind }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// conn is the subset of *nats.Conn used here.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type NATSPublisher struct{ nc conn }

func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("lending-backend"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.nc.Publish(e.Subject(), b)
}

func (p *NATSPublisher) Close() { _ = p.nc.Drain() }

// Nop drops every event; used when NATS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}
