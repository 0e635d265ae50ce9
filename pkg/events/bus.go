package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps an event with delivery metadata
type Envelope struct {
	ID         uuid.UUID
	OccurredAt time.Time
	Event      Event
}

// Bus fans events out to subscribers. Emit never blocks the engines: a
// subscriber that falls behind its channel capacity loses events.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Envelope
	nowF func() time.Time
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{nowF: time.Now}
}

// Subscribe registers a subscriber channel with the given buffer capacity
func (b *Bus) Subscribe(capacity int) <-chan Envelope {
	ch := make(chan Envelope, capacity)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Emit implements Emitter
func (b *Bus) Emit(ev Event) {
	env := Envelope{
		ID:         uuid.New(),
		OccurredAt: b.nowF(),
		Event:      ev,
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- env:
		default:
		}
	}
}

// Close closes all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
