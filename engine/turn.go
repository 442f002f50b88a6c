package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/moa/agent"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/metrics"
	"github.com/hupe1980/moa/timer"
)

// turn carries the state of one RunTurn call.
type turn struct {
	engine   *Engine
	id       string
	session  *core.Session
	params   core.Params
	progress ProgressFunc
	handle   *activeTurn
	logger   logging.Logger
	start    time.Time

	timer *timer.Timer
	state State
	refs  core.References
}

func (t *turn) execute(ctx context.Context, prompt string) core.TurnResult {
	e := t.engine

	if t.session == nil {
		return t.fail(ctx, fmt.Errorf("%w: no session", core.ErrConfiguration))
	}
	if err := t.params.Validate(); err != nil {
		return t.fail(ctx, err)
	}
	models := t.params.WorkingSet()
	if len(models) == 0 {
		return t.fail(ctx, fmt.Errorf("%w: empty reference working set", core.ErrConfiguration))
	}

	t.session.AppendMessage(core.UserMessage(prompt))
	messages := t.session.History()
	if err := core.ValidateConversation(messages); err != nil {
		return t.fail(ctx, err)
	}

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeTurn, t.callbackContext()); err != nil {
		return t.fail(ctx, err)
	}

	elapsed := core.NewSharedScalar(0)
	t.timer = timer.Start(ctx, elapsed, e.config.TimerInterval, func(seconds float64) {
		t.emit(core.NewElapsedEvent(t.id, seconds))
	})
	defer t.timer.Stop()

	t.setState(StateTimerStarted)
	t.emit(core.NewEvent(t.id, core.EventTurnStarted))
	t.logger.Info("Turn started", "models", models, "aggregator", t.params.AggregatorModel, "rounds", t.params.RoundCount())

	t.setState(StateFanOutInFlight)
	layers := &agent.Layers{
		FanOut: agent.NewFanOut(e.client, func(o *agent.FanOutOptions) {
			o.Timeout = e.config.ReferenceTimeout
			o.TolerateFailures = e.config.TolerateFailures
			o.Logger = t.logger
			o.OnComplete = t.onReference
		}),
		Builder: e.builder,
		Rounds:  t.params.RoundCount(),
		OnRound: func(round int, refs core.References) { t.onRound(ctx, round, refs) },
	}

	refs, err := layers.Run(ctx, messages, models, t.params.Temperature, t.params.MaxTokens)
	if err != nil {
		return t.fail(ctx, err)
	}
	t.refs = refs

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeAggregation, t.callbackContext()); err != nil {
		return t.fail(ctx, err)
	}

	aggMessages, err := e.builder.Build(messages, refs)
	if err != nil {
		return t.fail(ctx, err)
	}

	t.setState(StateAggregationInFlight)
	started := core.NewEvent(t.id, core.EventAggregationStarted)
	started.Model = t.params.AggregatorModel
	t.emit(started)

	aggregator := agent.NewAggregator(e.client, func(o *agent.AggregatorOptions) {
		o.Timeout = e.config.AggregationTimeout
		o.Logger = t.logger
	})

	aggStart := time.Now()
	text, err := aggregator.Collect(ctx, aggMessages, t.params, func(fragment, partial string) {
		e.metrics.Fragment()
		t.emit(core.NewFragmentEvent(t.id, fragment, partial))
	})
	e.metrics.ModelCall("aggregation", t.params.AggregatorModel, metrics.Status(err), time.Since(aggStart))
	if err != nil {
		return t.fail(ctx, err)
	}

	return t.complete(ctx, text)
}

func (t *turn) onReference(round int, model string, dur time.Duration, err error) {
	t.engine.metrics.ModelCall("reference", model, metrics.Status(err), dur)
	if err == nil {
		t.emit(core.NewReferenceDoneEvent(t.id, model, round))
	}
}

func (t *turn) onRound(ctx context.Context, round int, refs core.References) {
	ev := core.NewEvent(t.id, core.EventRoundDone)
	ev.Round = round
	t.emit(ev)

	cbCtx := t.callbackContext()
	cbCtx.Round = round
	cbCtx.References = refs
	if err := t.engine.callbacks.ExecuteCallbacks(ctx, CallbackAfterRound, cbCtx); err != nil {
		t.logger.Warn("Callback failed", "error", err.Error())
	}
}

func (t *turn) complete(ctx context.Context, text string) core.TurnResult {
	t.stopTimer()

	msg := core.AssistantMessage(text)
	t.session.AppendMessage(msg)
	t.setState(StateCompleted)

	res := core.TurnResult{
		TurnID:     t.id,
		Message:    &msg,
		References: t.refs,
		Elapsed:    time.Since(t.start),
	}

	ev := core.NewEvent(t.id, core.EventTurnCompleted)
	ev.Text = text
	ev.Elapsed = res.Elapsed.Seconds()
	t.emit(ev)

	t.finish(ctx, &res, CallbackAfterTurn)
	return res
}

func (t *turn) fail(ctx context.Context, err error) core.TurnResult {
	t.stopTimer()
	t.setState(StateFailed)

	res := core.TurnResult{
		TurnID:     t.id,
		References: t.refs,
		Err:        err,
		Elapsed:    time.Since(t.start),
	}

	ev := core.NewEvent(t.id, core.EventTurnFailed)
	ev.Text = res.ErrorMessage()
	ev.Elapsed = res.Elapsed.Seconds()
	t.emit(ev)

	t.finish(ctx, &res, CallbackOnError)
	return res
}

func (t *turn) finish(ctx context.Context, res *core.TurnResult, cb CallbackType) {
	e := t.engine

	e.metrics.TurnFinished(metrics.Status(res.Err), res.Elapsed)
	logging.LogTurn(t.logger, t.id, len(res.References), res.Elapsed, res.Err)

	if e.sessionStore != nil && t.session != nil {
		if err := e.sessionStore.Save(t.session); err != nil {
			t.logger.Warn("Failed to save session", "session_id", t.session.ID, "error", err.Error())
		}
	}

	cbCtx := t.callbackContext()
	cbCtx.Result = res
	if err := e.callbacks.ExecuteCallbacks(context.WithoutCancel(ctx), cb, cbCtx); err != nil {
		t.logger.Warn("Callback failed", "error", err.Error())
	}
}

func (t *turn) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *turn) setState(s State) {
	t.logger.Debug("Turn state changed", "from", t.state.String(), "to", s.String())
	t.state = s
	if t.handle != nil {
		t.handle.setState(s)
	}
}

func (t *turn) emit(ev core.Event) {
	t.progress(ev)
}

func (t *turn) callbackContext() *CallbackContext {
	return &CallbackContext{
		TurnID:     t.id,
		Session:    t.session,
		Params:     t.params,
		State:      t.state,
		References: t.refs,
	}
}
