// Package events provides the in-process channel used to fan out data and
// session changes to the rest of the shell.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type names an event.
type Type string

const (
	UserUpdated       Type = "user_updated"
	UserDeleted       Type = "user_deleted"
	CollectionUpdated Type = "collection_updated"
	DataRefreshNeeded Type = "data_refresh_needed"
	UserAccessDenied  Type = "user_access_denied"
	UserDeactivated   Type = "user_deactivated"
	UserReactivated   Type = "user_reactivated"
)

// Event is a published message.
type Event struct {
	Type    Type
	Payload any
}

// AccessDenied is the payload of UserAccessDenied.
type AccessDenied struct {
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// FarmerChanged is the payload of the farmer roster events.
type FarmerChanged struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// CollectionChanged is the payload of CollectionUpdated.
type CollectionChanged struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Action string `json:"action"`
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to the subscribers of their type, in
// registration order. Events are not stored: late subscribers see nothing.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Type][]subscription
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{subs: make(map[Type][]subscription), logger: logger}
}

// Subscribe registers h for events of type t and returns a func that removes it.
func (b *Bus) Subscribe(t Type, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(t, id) })
	}
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[t]
	kept := make([]subscription, 0, len(current))
	for _, s := range current {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.subs, t)
		return
	}
	b.subs[t] = kept
}

// Publish delivers an event to every current subscriber before returning.
// Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs[t]))
	copy(snapshot, b.subs[t])
	b.mu.RUnlock()

	b.logger.Debug("publishing event", zap.String("event", string(t)), zap.Int("subscribers", len(snapshot)))

	evt := Event{Type: t, Payload: payload}
	for _, s := range snapshot {
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", zap.String("event", string(evt.Type)), zap.Any("panic", r))
		}
	}()
	s.handler(evt)
}

// Subscribers returns how many handlers listen for t.
func (b *Bus) Subscribers(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}
