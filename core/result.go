package core

import "time"

// TurnResult is the single outcome of a turn: either the assistant message or
// the error that aborted the turn.
type TurnResult struct {
	TurnID     string        `json:"turn_id"`
	Message    *Message      `json:"message,omitempty"`
	References References    `json:"references,omitempty"` // outputs used for aggregation
	Err        error         `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

// OK reports whether the turn completed.
func (r TurnResult) OK() bool { return r.Err == nil && r.Message != nil }

// ErrorMessage returns a human readable description of the failure, or an
// empty string for successful turns.
func (r TurnResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return "An error occurred during the generation process: " + r.Err.Error()
}
