package notification

import (
	"time"

	domain "lending-backend/internal/domain/notification"
)

// Message is one lifecycle notice for a user. SMS opts the message into the
// SMS channel when the user has a phone number.
type Message struct {
	UserID     uint64
	Kind       domain.Kind
	Title      string
	Body       string
	SMS        bool
	EntityType string
	EntityID   string
}

type NotificationDTO struct {
	ID        uint64     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type InboxDTO struct {
	Items  []NotificationDTO `json:"items"`
	Unread int64             `json:"unread"`
}
