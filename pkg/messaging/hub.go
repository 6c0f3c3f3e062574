package messaging

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
)

// ErrNoReceiver is returned when no handler is registered for the tab.
var ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

// Handler reacts to messages addressed to one tab.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Sender delivers a message to a tab.
type Sender interface {
	Send(ctx context.Context, tabID string, msg Message) error
}

// subscriberBuffer is how many undelivered messages a slow listener may
// accumulate before new ones are dropped for it.
const subscriberBuffer = 8

// Hub routes messages to the handler registered for a tab and fans them out
// to any listeners of that tab (the browser side of a served page).
type Hub struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	subs     map[string]map[chan Message]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		handlers: make(map[string]Handler),
		subs:     make(map[string]map[chan Message]struct{}),
	}
}

// Register installs h for tabID, replacing any previous handler.
func (h *Hub) Register(tabID string, handler Handler) {
	h.mu.Lock()
	h.handlers[tabID] = handler
	h.mu.Unlock()
}

// Unregister removes the handler and closes all listeners of tabID.
func (h *Hub) Unregister(tabID string) {
	h.mu.Lock()
	delete(h.handlers, tabID)
	for ch := range h.subs[tabID] {
		close(ch)
	}
	delete(h.subs, tabID)
	h.mu.Unlock()
}

// Listeners returns how many listeners are subscribed to tabID.
func (h *Hub) Listeners(tabID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tabID])
}

// Subscribe returns a channel receiving every message sent to tabID after the
// handler processed it, and a cancel func.
func (h *Hub) Subscribe(tabID string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)
	h.mu.Lock()
	if h.subs[tabID] == nil {
		h.subs[tabID] = make(map[chan Message]struct{})
	}
	h.subs[tabID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[tabID]; ok {
				if _, live := set[ch]; live {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, tabID)
				}
			}
		})
	}
	return ch, cancel
}

// Send delivers msg to the tab's handler, then to its listeners. It returns
// ErrNoReceiver if the tab has no handler.
func (h *Hub) Send(ctx context.Context, tabID string, msg Message) error {
	h.mu.RLock()
	handler, ok := h.handlers[tabID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoReceiver
	}

	if err := handler.HandleMessage(ctx, msg); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[tabID] {
		select {
		case ch <- msg:
		default:
			logger.L().Warn("dropping message for slow listener",
				zap.String("tab", tabID), zap.String("action", msg.Action()))
		}
	}
	return nil
}
