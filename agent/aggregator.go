package agent

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/model"
)

// FragmentFunc receives every aggregator fragment together with the text
// accumulated so far (fragment included).
type FragmentFunc func(fragment, partial string)

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	// Timeout bounds the whole aggregation stream. Zero disables the deadline.
	Timeout time.Duration

	// Logger records the aggregation call. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Aggregator drives the streaming call to the aggregator model.
type Aggregator struct {
	client model.Client
	opts   AggregatorOptions
}

// NewAggregator creates an aggregator caller on top of client.
func NewAggregator(client model.Client, optFns ...func(o *AggregatorOptions)) *Aggregator {
	opts := AggregatorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Aggregator{client: client, opts: opts}
}

// Stream issues exactly one streaming completion against the aggregator
// model of params. The channels follow the model.Client contract.
func (a *Aggregator) Stream(ctx context.Context, messages []core.Message, params core.Params) (<-chan string, <-chan error) {
	return a.client.CompleteStream(ctx, model.Request{
		Model:       params.AggregatorModel,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
}

// Collect streams the aggregation and returns the concatenation of all
// fragments in arrival order. onFragment (optional) runs on the caller's
// goroutine for every fragment.
//
// Any stream failure, whether before the first fragment or mid-stream,
// discards the accumulated text and returns a *core.AggregationCallError.
func (a *Aggregator) Collect(
	ctx context.Context,
	messages []core.Message,
	params core.Params,
	onFragment FragmentFunc,
) (string, error) {
	var cancel context.CancelFunc
	if a.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	// Releases the producer if the stream is abandoned.
	defer cancel()

	start := time.Now()
	out, errCh := a.Stream(ctx, messages, params)

	var (
		sb        strings.Builder
		fragments int
	)
	for frag := range out {
		sb.WriteString(frag)
		fragments++
		if onFragment != nil {
			onFragment(frag, sb.String())
		}
	}

	err := <-errCh
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	logging.LogModelCall(a.opts.Logger, params.AggregatorModel, "aggregation", time.Since(start), err)
	if err != nil {
		return "", &core.AggregationCallError{Model: params.AggregatorModel, Fragments: fragments, Err: err}
	}
	return sb.String(), nil
}
