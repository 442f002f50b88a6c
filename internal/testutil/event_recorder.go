package testutil

import (
	"sync"

	"github.com/hupe1980/moa/core"
)

// EventRecorder collects progress events from concurrent emitters.
// Example:
//
//	rec := NewEventRecorder()
//	eng.RunTurn(ctx, sess, "hi", params, rec.Record)
//	kinds := rec.Kinds()
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

// Record stores ev. It has the signature of a progress callback.
func (r *EventRecorder) Record(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of all recorded events in arrival order.
func (r *EventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Kinds returns the kinds of all recorded events, skipping elapsed ticks.
func (r *EventRecorder) Kinds() []core.EventKind {
	var kinds []core.EventKind
	for _, ev := range r.Events() {
		if ev.Kind == core.EventElapsed {
			continue
		}
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// OfKind returns the recorded events of the given kind.
func (r *EventRecorder) OfKind(kind core.EventKind) []core.Event {
	var out []core.Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (r *EventRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
