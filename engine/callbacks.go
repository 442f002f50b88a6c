package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/moa/core"
)

// CallbackType defines the different points in the turn lifecycle where
// callbacks can be executed.
type CallbackType string

const (
	// CallbackBeforeTurn runs after validation, before the timer starts.
	// An error aborts the turn.
	CallbackBeforeTurn CallbackType = "before_turn"

	// CallbackAfterRound runs after every reference round.
	CallbackAfterRound CallbackType = "after_round"

	// CallbackBeforeAggregation runs with the final references right before
	// the aggregator is called. An error aborts the turn.
	CallbackBeforeAggregation CallbackType = "before_aggregation"

	// CallbackAfterTurn runs once a turn completed successfully.
	CallbackAfterTurn CallbackType = "after_turn"

	// CallbackOnError runs once a turn failed.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext provides the state of the turn to callbacks.
type CallbackContext struct {
	TurnID  string
	Session *core.Session
	Params  core.Params
	State   State

	// Round is set for after_round callbacks.
	Round int

	// References holds the outputs of the latest finished round.
	References core.References

	// Result is set for after_turn and on_error callbacks.
	Result *core.TurnResult
}

// Callback defines the interface for turn lifecycle callbacks.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute runs the callback function.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager manages and executes callbacks.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback registers a callback.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all callbacks of the given type in registration
// order and stops at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	if cm == nil {
		return nil
	}
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback logs turn lifecycle points.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the callback execution.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger != nil {
		c.logger(fmt.Sprintf("[%s] turn=%s state=%s references=%d",
			c.callbackType, callbackCtx.TurnID, callbackCtx.State, len(callbackCtx.References)))
	}
	return nil
}
