package notifymock

import (
	"context"
	"sync"

	"lending-backend/internal/domain/notification"
	notificationUC "lending-backend/internal/usecase/notification"
)

// Recorder captures notifications instead of delivering them.
type Recorder struct {
	mu       sync.Mutex
	Messages []notificationUC.Message
}

func (r *Recorder) Notify(_ context.Context, m notificationUC.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, m)
}

func (r *Recorder) Kinds() []notification.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Kind, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Kind
	}
	return out
}

// Has reports whether a message of kind was sent to userID.
func (r *Recorder) Has(userID uint64, kind notification.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if m.UserID == userID && m.Kind == kind {
			return true
		}
	}
	return false
}
