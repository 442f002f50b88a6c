package core

import (
	"errors"
	"fmt"
)

var (
	// ErrReferenceCall marks a failed completion call to a reference model.
	ErrReferenceCall = errors.New("reference model call failed")

	// ErrAggregationCall marks a failed (or interrupted) aggregator stream.
	ErrAggregationCall = errors.New("aggregation call failed")

	// ErrConfiguration is returned for generation parameters that can not
	// produce a valid turn, including an empty working set.
	ErrConfiguration = errors.New("invalid generation configuration")

	// ErrInvalidConversation is returned when a conversation violates the
	// single leading system message invariant.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrSessionNotFound is returned by stores that do not create sessions lazily.
	ErrSessionNotFound = errors.New("session not found")
)

// ReferenceCallError wraps the failure of a single reference model.
type ReferenceCallError struct {
	Model string
	Err   error
}

func (e *ReferenceCallError) Error() string {
	return fmt.Sprintf("reference model %s: %v", e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *ReferenceCallError) Unwrap() []error { return []error{ErrReferenceCall, e.Err} }

// AggregationCallError wraps a failure of the aggregator stream, whether it
// happened while opening the stream or after fragments were received.
type AggregationCallError struct {
	Model     string
	Fragments int // fragments received before the failure
	Err       error
}

func (e *AggregationCallError) Error() string {
	if e.Fragments > 0 {
		return fmt.Sprintf("aggregator model %s failed after %d fragments: %v", e.Model, e.Fragments, e.Err)
	}
	return fmt.Sprintf("aggregator model %s: %v", e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *AggregationCallError) Unwrap() []error { return []error{ErrAggregationCall, e.Err} }
