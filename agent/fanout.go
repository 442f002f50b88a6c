package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/model"
)

// CompletionHook observes each finished reference call. err is nil on
// success. Hooks run on worker goroutines and must be safe for concurrent use.
type CompletionHook func(round int, model string, dur time.Duration, err error)

// FanOutOptions configures a FanOut.
type FanOutOptions struct {
	// Timeout bounds every single reference call. Zero disables the deadline.
	Timeout time.Duration

	// TolerateFailures drops failing models from the result instead of
	// failing the whole fan-out. The fan-out still fails when every model
	// fails. Disabled by default: one failing model aborts the fan-out.
	TolerateFailures bool

	// OnComplete is invoked once per worker. Calls cancelled because
	// another model already failed the fan-out are not reported.
	OnComplete CompletionHook

	// Logger records every model call. Defaults to NoOpLogger.
	Logger logging.Logger
}

// FanOut dispatches the same conversation to several reference models in
// parallel.
//
// Each model gets its own goroutine and its own output slot; there is no
// worker pool. The reference models only see the conversation they are
// given, never each other's output of the same round.
type FanOut struct {
	client model.Client
	opts   FanOutOptions
}

// NewFanOut creates a fan-out executor on top of client.
func NewFanOut(client model.Client, optFns ...func(o *FanOutOptions)) *FanOut {
	opts := FanOutOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &FanOut{client: client, opts: opts}
}

// Run executes a single reference round. See RunRound.
func (f *FanOut) Run(ctx context.Context, messages []core.Message, models []string, temperature float64, maxTokens int) (core.References, error) {
	return f.RunRound(ctx, 1, messages, models, temperature, maxTokens)
}

// RunRound queries every model concurrently and waits for all of them. The
// outputs are returned in the order of models, one per model.
//
// With the default strict policy the first failure cancels the remaining
// calls and RunRound returns no outputs and that failure as a
// *core.ReferenceCallError. With TolerateFailures the failing models are left
// out and an error is returned only when no model succeeded.
func (f *FanOut) RunRound(
	ctx context.Context,
	round int,
	messages []core.Message,
	models []string,
	temperature float64,
	maxTokens int,
) (core.References, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: empty reference working set", core.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		outputs  = make([]string, len(models))
		errs     = make([]error, len(models))
	)

	for i, m := range models {
		wg.Add(1)
		go func(i int, m string) {
			defer wg.Done()

			text, dur, err := f.query(ctx, m, messages, temperature, maxTokens)
			if err == nil {
				outputs[i] = text
				f.report(round, m, dur, nil)
				return
			}

			errs[i] = &core.ReferenceCallError{Model: m, Err: err}
			if !f.opts.TolerateFailures {
				mu.Lock()
				aborted := firstErr != nil
				if !aborted {
					firstErr = errs[i]
					cancel()
				}
				mu.Unlock()

				// cancelled by an earlier failure, not a failure of m
				if aborted && errors.Is(err, context.Canceled) {
					return
				}
			}
			f.report(round, m, dur, err)
		}(i, m)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	refs := make(core.References, 0, len(models))
	for i, m := range models {
		if errs[i] != nil {
			f.opts.Logger.Warn("Dropping failed reference model", "model", m, "round", round, "error", errs[i].Error())
			continue
		}
		refs = append(refs, core.ReferenceOutput{Model: m, Text: outputs[i]})
	}
	if len(refs) == 0 {
		return nil, errors.Join(errs...)
	}
	return refs, nil
}

func (f *FanOut) query(
	ctx context.Context,
	m string,
	messages []core.Message,
	temperature float64,
	maxTokens int,
) (string, time.Duration, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := f.client.Complete(ctx, model.Request{
		Model:       m,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	return text, time.Since(start), err
}

func (f *FanOut) report(round int, m string, dur time.Duration, err error) {
	logging.LogModelCall(f.opts.Logger, m, "reference", dur, err)
	if f.opts.OnComplete != nil {
		f.opts.OnComplete(round, m, dur, err)
	}
}
