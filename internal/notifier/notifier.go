package notifier

import (
	"sync"

	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

const (
	EventTransferPending = "transfer_pending"
	EventTransferUpdate  = "transfer_update"
)

// Event is one push-channel message for a single user.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notifier is the fire-and-forget push capability the transfer service
// depends on. Delivery is at-most-once, best-effort; a user with no active
// connection receives nothing until they poll.
type Notifier interface {
	EmitPending(userID string, payload interface{})
	EmitUpdate(userID string, payload interface{})
}

// Hub fans events out to a user's active connections. Sends never block:
// a slow or full subscriber drops the event rather than stalling the caller's
// ledger operation.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	logger *zerolog.Logger
}

func NewHub() *Hub {
	l := log.GetLogger()
	return &Hub{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: &l,
	}
}

// Subscribe registers a connection for the user and returns its event
// channel plus a cancel function to be called when the connection closes.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

func (h *Hub) EmitPending(userID string, payload interface{}) {
	h.emit(userID, Event{Type: EventTransferPending, Data: payload})
}

func (h *Hub) EmitUpdate(userID string, payload interface{}) {
	h.emit(userID, Event{Type: EventTransferUpdate, Data: payload})
}

func (h *Hub) emit(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- event:
		default:
			h.logger.Warn().
				Str("user_id", userID).
				Str("event", event.Type).
				Msg("dropping push event for slow subscriber")
		}
	}
}

// Noop satisfies Notifier when no push channel is wanted, e.g. in tests.
type Noop struct{}

func (Noop) EmitPending(string, interface{}) {}

func (Noop) EmitUpdate(string, interface{}) {}
