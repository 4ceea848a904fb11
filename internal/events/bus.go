package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// subscription is one subscriber channel and the events it accepts. Empty
// filter fields match anything.
type subscription struct {
	ch         chan Event
	eventType  string
	entityType string
	entityID   string
}

func (s *subscription) matches(e Event) bool {
	if s.eventType != "" && s.eventType != e.EventType() {
		return false
	}
	if s.entityType != "" && (s.entityType != e.EntityType() || s.entityID != e.EntityID()) {
		return false
	}
	return true
}

// Bus fans browse events out to in-memory subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *slog.Logger
	closed bool
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Publish delivers e to every matching subscriber. A subscriber whose buffer
// is full misses the event; publishers are never blocked. Publishing on a
// closed bus is a no-op.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		if !s.matches(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber behind, event dropped",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

// Subscribe returns a channel receiving events of eventType.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.add(&subscription{eventType: eventType}, bufferSize)
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.add(&subscription{}, bufferSize)
}

// SubscribeEntity returns a channel receiving every event about one entity,
// e.g. all events of one title.
func (b *Bus) SubscribeEntity(entityType, entityID string, bufferSize int) <-chan Event {
	return b.add(&subscription{entityType: entityType, entityID: entityID}, bufferSize)
}

func (b *Bus) add(s *subscription, bufferSize int) <-chan Event {
	s.ch = make(chan Event, bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Unsubscribe stops delivery to ch and closes it. Events already buffered stay
// readable.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
