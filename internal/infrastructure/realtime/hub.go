// Package realtime fans chat events out to websocket subscribers in-process.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is the envelope pushed to subscribers of a topic.
type Event struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

type subscriber struct {
	ch chan []byte
}

// Hub keeps subscribers per topic. Slow subscribers drop events rather than
// blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
	buffer int
	log    *logrus.Logger
}

func NewHub(buffer int, log *logrus.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{topics: make(map[string]map[*subscriber]struct{}), buffer: buffer, log: log}
}

// Subscribe registers for topic. The returned cancel func must be called
// once; it closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan []byte, func()) {
	s := &subscriber{ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.topics[topic], s)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

func (h *Hub) Publish(topic, eventType string, payload any) {
	b, err := json.Marshal(Event{Type: eventType, Topic: topic, Payload: payload})
	if err != nil {
		h.log.WithError(err).WithField("topic", topic).Error("realtime encode")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.topics[topic] {
		select {
		case s.ch <- b:
		default:
			h.log.WithField("topic", topic).Warn("realtime subscriber lagging, event dropped")
		}
	}
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
