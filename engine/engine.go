package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/moa/agent"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/metrics"
	"github.com/hupe1980/moa/model"
	"github.com/hupe1980/moa/timer"
)

// ProgressFunc receives progress events while a turn runs. It may be called
// concurrently (timer ticks, fan-out workers, aggregator fragments) and must
// be safe for concurrent use. It is never called after RunTurn returned.
type ProgressFunc func(ev core.Event)

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := engine.Config{
//	    TimerInterval:      100 * time.Millisecond,
//	    ReferenceTimeout:   time.Minute,
//	    MaxConcurrentTurns: 4,
//	    EventBufferSize:    256,
//	}
type Config struct {
	// TimerInterval is the cadence of elapsed-time updates.
	TimerInterval time.Duration

	// ReferenceTimeout bounds every single reference model call. Zero
	// disables the deadline.
	ReferenceTimeout time.Duration

	// AggregationTimeout bounds the whole aggregator stream. Zero disables
	// the deadline.
	AggregationTimeout time.Duration

	// TolerateFailures lets a turn continue with the reference models that
	// answered. By default any failing reference model fails the turn.
	TolerateFailures bool

	// MaxConcurrentTurns limits the number of turns that execute
	// simultaneously. Further turns wait for a slot. Set to 0 for unlimited.
	MaxConcurrentTurns int

	// EventBufferSize sets the channel buffer size of Invoke.
	EventBufferSize int
}

// DefaultConfig provides the default configuration values.
var DefaultConfig = Config{
	TimerInterval:      timer.DefaultInterval,
	MaxConcurrentTurns: 10,
	EventBufferSize:    100,
}

// Options configures an Engine. Unset collaborators fall back to no-op
// implementations.
type Options struct {
	// Config contains operational parameters.
	Config Config

	// SessionStore, when set, receives a snapshot of the session after every
	// turn, successful or not.
	SessionStore core.SessionStore

	// PromptBuilder injects reference outputs into the aggregation request
	// and into later reference rounds.
	PromptBuilder *agent.PromptBuilder

	// Callbacks are executed at the turn lifecycle points.
	Callbacks *CallbackManager

	// Metrics records turn and model call measurements.
	Metrics metrics.Recorder

	// Logger provides structured logging.
	Logger logging.Logger
}

// Engine runs Mixture-of-Agents turns against a completion client.
//
// Thread Safety: all methods are safe for concurrent use. Concurrent turns
// must use distinct sessions; a session is mutated by the turn that owns it.
type Engine struct {
	client       model.Client
	sessionStore core.SessionStore
	builder      *agent.PromptBuilder
	callbacks    *CallbackManager
	metrics      metrics.Recorder
	logger       logging.Logger

	config Config

	slots chan struct{} // nil when unlimited

	activeTurns map[string]*activeTurn
	turnsMu     sync.RWMutex
}

type activeTurn struct {
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
}

func (a *activeTurn) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *activeTurn) getState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// New creates an Engine that sends every model call through client.
func New(client model.Client, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:  DefaultConfig,
		Metrics: metrics.NoOp{},
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config.TimerInterval <= 0 {
		opts.Config.TimerInterval = timer.DefaultInterval
	}
	if opts.Config.EventBufferSize < 0 {
		opts.Config.EventBufferSize = 0
	}
	if opts.PromptBuilder == nil {
		opts.PromptBuilder = agent.DefaultPromptBuilder()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOp{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var slots chan struct{}
	if opts.Config.MaxConcurrentTurns > 0 {
		slots = make(chan struct{}, opts.Config.MaxConcurrentTurns)
	}

	return &Engine{
		client:       client,
		sessionStore: opts.SessionStore,
		builder:      opts.PromptBuilder,
		callbacks:    opts.Callbacks,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		config:       opts.Config,
		slots:        slots,
		activeTurns:  make(map[string]*activeTurn),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// RunTurn executes one complete turn on the caller's goroutine: it appends
// prompt as user message, queries the reference models of params
// concurrently, streams the aggregation and appends the assistant answer.
//
// Every failure is reported through TurnResult.Err; the session then keeps
// the user message but receives no assistant message. Cancelling ctx aborts
// the turn.
func (e *Engine) RunTurn(
	ctx context.Context,
	sess *core.Session,
	prompt string,
	params core.Params,
	progress ProgressFunc,
) core.TurnResult {
	turnID := core.NewID()
	turnCtx, handle, done := e.begin(ctx, turnID)
	defer done()

	return e.run(turnCtx, handle, turnID, sess, prompt, params, progress)
}

// Invoke starts a turn asynchronously and returns immediately.
//
// Returns:
//   - turnID: identifier usable with StopTurn
//   - events: progress events, closed when the turn ends
//   - result: receives exactly one TurnResult, closed after events
//
// Callers must drain events; a full buffer blocks the turn. Once the turn is
// cancelled, progress events that do not fit the buffer are dropped, but the
// final turn_completed or turn_failed event is always delivered.
func (e *Engine) Invoke(
	ctx context.Context,
	sess *core.Session,
	prompt string,
	params core.Params,
) (string, <-chan core.Event, <-chan core.TurnResult) {
	turnID := core.NewID()

	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	resultCh := make(chan core.TurnResult, 1)

	turnCtx, handle, done := e.begin(ctx, turnID)

	go func() {
		defer close(resultCh)
		defer close(eventsCh)
		defer done()

		emit := func(ev core.Event) {
			if ev.Kind == core.EventTurnCompleted || ev.Kind == core.EventTurnFailed {
				eventsCh <- ev
				return
			}
			select {
			case eventsCh <- ev:
				return
			default:
			}
			select {
			case eventsCh <- ev:
			case <-turnCtx.Done():
			}
		}

		resultCh <- e.run(turnCtx, handle, turnID, sess, prompt, params, emit)
	}()

	return turnID, eventsCh, resultCh
}

// InvokeSync runs a turn through Invoke and collects every event.
func (e *Engine) InvokeSync(
	ctx context.Context,
	sess *core.Session,
	prompt string,
	params core.Params,
) (core.TurnResult, []core.Event) {
	_, eventsCh, resultCh := e.Invoke(ctx, sess, prompt, params)

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}

	return <-resultCh, events
}

// StopTurn cancels a running turn. The turn finishes with a cancellation
// error.
func (e *Engine) StopTurn(turnID string) error {
	e.turnsMu.RLock()
	handle, exists := e.activeTurns[turnID]
	e.turnsMu.RUnlock()

	if !exists {
		return fmt.Errorf("turn %s not found", turnID)
	}

	handle.cancel()
	return nil
}

// ActiveTurns returns the ids of all running turns, sorted.
func (e *Engine) ActiveTurns() []string {
	e.turnsMu.RLock()
	defer e.turnsMu.RUnlock()

	ids := make([]string, 0, len(e.activeTurns))
	for id := range e.activeTurns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TurnState reports the state of a running turn.
func (e *Engine) TurnState(turnID string) (State, bool) {
	e.turnsMu.RLock()
	handle, exists := e.activeTurns[turnID]
	e.turnsMu.RUnlock()

	if !exists {
		return StateIdle, false
	}
	return handle.getState(), true
}

func (e *Engine) begin(ctx context.Context, turnID string) (context.Context, *activeTurn, func()) {
	turnCtx, cancel := context.WithCancel(ctx)
	handle := &activeTurn{cancel: cancel}

	e.turnsMu.Lock()
	e.activeTurns[turnID] = handle
	e.turnsMu.Unlock()

	return turnCtx, handle, func() {
		cancel()
		e.turnsMu.Lock()
		delete(e.activeTurns, turnID)
		e.turnsMu.Unlock()
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.slots == nil {
		return nil
	}
	select {
	case e.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	if e.slots != nil {
		<-e.slots
	}
}

func (e *Engine) turnLogger(sess *core.Session, turnID string) logging.Logger {
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}
	if l, ok := e.logger.(*logging.MoALogger); ok {
		return l.WithComponent("engine").WithTurn(sessionID, turnID)
	}
	return e.logger
}

func (e *Engine) run(
	ctx context.Context,
	handle *activeTurn,
	turnID string,
	sess *core.Session,
	prompt string,
	params core.Params,
	progress ProgressFunc,
) core.TurnResult {
	if progress == nil {
		progress = func(core.Event) {}
	}

	t := &turn{
		engine:   e,
		id:       turnID,
		session:  sess,
		params:   params,
		progress: progress,
		handle:   handle,
		logger:   e.turnLogger(sess, turnID),
		start:    time.Now(),
	}

	e.metrics.TurnStarted()

	if err := e.acquire(ctx); err != nil {
		return t.fail(ctx, fmt.Errorf("waiting for a turn slot: %w", err))
	}
	defer e.release()

	return t.execute(ctx, prompt)
}
