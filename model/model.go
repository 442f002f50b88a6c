package model

import (
	"context"

	"github.com/hupe1980/moa/core"
)

// Request captures the normalized input of one completion call.
type Request struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

// Client is the completion collaborator the pipeline drives.
type Client interface {
	// Complete performs a non-streaming completion and returns the full text.
	Complete(ctx context.Context, req Request) (string, error)

	// CompleteStream performs a streaming completion. Text fragments arrive in
	// order on the first channel, which is closed when the stream ends. The
	// error channel receives at most one terminal error and is closed after
	// the fragment channel.
	CompleteStream(ctx context.Context, req Request) (<-chan string, <-chan error)
}

// ClientFunc adapts a pair of functions to the Client interface.
type ClientFunc struct {
	CompleteFn       func(ctx context.Context, req Request) (string, error)
	CompleteStreamFn func(ctx context.Context, req Request) (<-chan string, <-chan error)
}

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f.CompleteFn(ctx, req)
}

// CompleteStream implements Client.
func (f ClientFunc) CompleteStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	return f.CompleteStreamFn(ctx, req)
}

// StreamError returns a closed fragment channel and an error channel holding err.
// Adapters use it to report failures that happen before a stream opens.
func StreamError(err error) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)
	close(out)
	errCh <- err
	close(errCh)
	return out, errCh
}
