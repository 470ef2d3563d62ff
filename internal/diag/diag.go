// Package diag carries the normalizer's soft diagnostics: observational
// signals that never alter control flow or output. Production callers use
// Nop; development builds and tests inject a Recorder or their own Sink.
package diag

import (
	"sync"

	store "github.com/eduardotrandafilov/relay/internal/store"
)

// Event is one soft diagnostic. The set of implementations is closed.
type Event interface {
	isEvent()
}

// TypeMismatch is emitted when one identity is observed under two different
// runtime types. The stored type is kept; the payload type is discarded.
type TypeMismatch struct {
	ID       store.DataID
	Stored   string
	Observed string
}

// MissingField is emitted when the response lacks a field the selection tree
// expected, as opposed to carrying an explicit null for it.
type MissingField struct {
	Owner       store.DataID
	ResponseKey string
}

// NonBooleanGuard is emitted when a defer/stream guard or condition variable
// resolves to a non-boolean value.
type NonBooleanGuard struct {
	Variable string
	Value    any
}

func (TypeMismatch) isEvent()    {}
func (MissingField) isEvent()    {}
func (NonBooleanGuard) isEvent() {}

// Sink receives diagnostic events. Implementations must not panic and must
// not assume events arrive from a single goroutine across calls.
type Sink interface {
	Emit(e Event)
}

// Nop discards all events. It is the default sink.
type Nop struct{}

func (Nop) Emit(Event) {}

// Recorder collects events in order for later inspection.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the events recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
