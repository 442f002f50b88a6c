package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a progress event.
type EventKind string

const (
	// EventTurnStarted is emitted once the timer runs and the turn begins.
	EventTurnStarted EventKind = "turn_started"
	// EventReferenceDone is emitted by each fan-out worker that finished querying its model.
	EventReferenceDone EventKind = "reference_done"
	// EventRoundDone is emitted after all workers of a reference round joined.
	EventRoundDone EventKind = "round_done"
	// EventAggregationStarted is emitted right before the aggregator stream opens.
	EventAggregationStarted EventKind = "aggregation_started"
	// EventFragment carries one aggregator text fragment.
	EventFragment EventKind = "fragment"
	// EventElapsed carries a timer tick.
	EventElapsed EventKind = "elapsed"
	// EventTurnCompleted is emitted with the final assistant text.
	EventTurnCompleted EventKind = "turn_completed"
	// EventTurnFailed is emitted with the human readable error notice.
	EventTurnFailed EventKind = "turn_failed"
)

// Event is a progress notice delivered to the calling surface while a turn
// runs. Events are immutable once emitted.
//
// Field usage by kind:
//   - reference_done: Model, Round
//   - round_done: Round
//   - aggregation_started: Model (aggregator)
//   - fragment: Text (fragment) and Partial (accumulated text so far)
//   - elapsed: Elapsed
//   - turn_completed: Text (final answer), Elapsed
//   - turn_failed: Text (error notice), Elapsed
type Event struct {
	ID        string    `json:"id"`
	TurnID    string    `json:"turn_id"`
	Kind      EventKind `json:"kind"`
	Model     string    `json:"model,omitempty"`
	Round     int       `json:"round,omitempty"`
	Text      string    `json:"text,omitempty"`
	Partial   string    `json:"partial,omitempty"`
	Elapsed   float64   `json:"elapsed,omitempty"` // seconds
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event of the given kind bound to a turn.
func NewEvent(turnID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		TurnID:    turnID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewReferenceDoneEvent reports that model finished answering in round.
func NewReferenceDoneEvent(turnID, model string, round int) Event {
	e := NewEvent(turnID, EventReferenceDone)
	e.Model = model
	e.Round = round
	return e
}

// NewFragmentEvent reports one aggregator fragment plus the accumulated text.
func NewFragmentEvent(turnID, fragment, partial string) Event {
	e := NewEvent(turnID, EventFragment)
	e.Text = fragment
	e.Partial = partial
	return e
}

// NewElapsedEvent reports a timer tick.
func NewElapsedEvent(turnID string, seconds float64) Event {
	e := NewEvent(turnID, EventElapsed)
	e.Elapsed = seconds
	return e
}

// NewID generates a new unique identifier for turns and events.
func NewID() string { return uuid.NewString() }

// Notice renders the event as the one line status message shown to users.
// Fragment and elapsed events have no notice.
func (e Event) Notice() string {
	switch e.Kind {
	case EventReferenceDone:
		return "Finished querying " + e.Model + "."
	case EventAggregationStarted:
		return "Aggregating results & querying the aggregate model..."
	case EventTurnFailed:
		return e.Text
	default:
		return ""
	}
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
