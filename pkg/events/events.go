// Package events defines the in-process event stream fed by the engines
// and consumed by logging, metrics and the external indexer.
package events

// Event is a domain event emitted by an engine after a committed state change.
type Event interface {
	EventType() string
}

// Emitter receives events from the engines
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards all events
type NoopEmitter struct{}

// Emit implements Emitter
func (NoopEmitter) Emit(Event) {}
