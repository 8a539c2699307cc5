package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected    = "connected"
	EventCashflowRisk = "cashflow_risk"
)

const subscriberBuffer = 10

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans events out to the SSE subscribers of a company. Slow subscribers
// lose events instead of blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает на события компании и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(companyID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	companySubs, ok := h.subscribers[companyID]
	if !ok {
		companySubs = make(map[chan Event]struct{})
		h.subscribers[companyID] = companySubs
	}
	companySubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[companyID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, companyID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам компании и возвращает число получателей.
func (h *Hub) Publish(companyID uuid.UUID, event Event) int {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[companyID] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers возвращает число активных подписок компании.
func (h *Hub) Subscribers(companyID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[companyID])
}
