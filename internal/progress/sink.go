// Package progress defines the narrow callback contract the engine uses to
// report per-source lifecycle events. The engine never assumes anything
// about how (or whether) a Sink renders these events; a terminal UI, as in
// the teacher's progressBar, is an external collaborator built on top of it.
package progress

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one source's execution against one
// target.
type Status int

const (
	Pending Status = iota
	Running
	Completed
	Failed
	Timeout
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Event is one lifecycle signal emitted by a Runner for a single source.
type Event struct {
	RunID          uuid.UUID
	Source         string
	CountIncrement int
	Status         *Status
}

// Sink is the collaborator that receives lifecycle events. Update must be
// safe to call concurrently from multiple Runners and must not block the
// caller indefinitely; implementations that render to a terminal should
// queue internally rather than do I/O on the calling goroutine.
type Sink interface {
	Update(event Event)
}

// Noop discards every event. Useful as the default Sink in tests and for
// callers that only want the TargetReport, not progress.
type Noop struct{}

func (Noop) Update(Event) {}

// Recorder is a Sink that appends every event it receives, guarded by a
// mutex. Useful in tests asserting on the lifecycle-callback contract from
// spec.md §4.3 ("at least twice: Running at start, terminal at end").
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Update(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
