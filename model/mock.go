package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/moa/core"
)

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Behaviour is configured per model; unknown models answer with a canned
// "Mock response" text.
type MockClient struct {
	mu        sync.Mutex
	outputs   map[string]string
	errors    map[string]error
	delays    map[string]time.Duration
	blocking  map[string]bool
	streams   map[string][]string
	streamErr map[string]mockStreamErr
	requests  []Request
}

type mockStreamErr struct {
	after int
	err   error
}

// NewMockClient constructs an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		outputs:   map[string]string{},
		errors:    map[string]error{},
		delays:    map[string]time.Duration{},
		blocking:  map[string]bool{},
		streams:   map[string][]string{},
		streamErr: map[string]mockStreamErr{},
	}
}

// SetOutput registers the Complete output for model.
func (m *MockClient) SetOutput(model, output string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[model] = output
	return m
}

// SetError makes every call for model fail with err.
func (m *MockClient) SetError(model string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[model] = err
	return m
}

// SetDelay delays Complete for model.
func (m *MockClient) SetDelay(model string, d time.Duration) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[model] = d
	return m
}

// SetBlocking makes calls for model hang until their context is cancelled.
func (m *MockClient) SetBlocking(model string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking[model] = true
	return m
}

// SetStream registers the fragments CompleteStream emits for model.
func (m *MockClient) SetStream(model string, fragments ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[model] = fragments
	return m
}

// SetStreamError makes the stream for model fail with err after emitting
// `after` fragments.
func (m *MockClient) SetStreamError(model string, after int, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamErr[model] = mockStreamErr{after: after, err: err}
	return m
}

// Requests returns a copy of all recorded requests in call order.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestsFor returns the recorded requests addressed to model.
func (m *MockClient) RequestsFor(model string) []Request {
	var out []Request
	for _, r := range m.Requests() {
		if r.Model == model {
			out = append(out, r)
		}
	}
	return out
}

func (m *MockClient) record(req Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Messages = core.CloneMessages(req.Messages)
	m.requests = append(m.requests, req)
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.record(req)

	m.mu.Lock()
	out, hasOut := m.outputs[req.Model]
	err := m.errors[req.Model]
	delay := m.delays[req.Model]
	block := m.blocking[req.Model]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !hasOut {
		out = fmt.Sprintf("Mock response from %s", req.Model)
	}
	return out, nil
}

// CompleteStream implements Client.
func (m *MockClient) CompleteStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	m.record(req)

	m.mu.Lock()
	fragments, hasStream := m.streams[req.Model]
	failure, hasFailure := m.streamErr[req.Model]
	err := m.errors[req.Model]
	block := m.blocking[req.Model]
	m.mu.Unlock()

	if err != nil {
		return StreamError(err)
	}
	if !hasStream {
		fragments = []string{fmt.Sprintf("Mock response from %s", req.Model)}
	}

	out := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer close(out)
		for i, f := range fragments {
			if hasFailure && i == failure.after {
				errCh <- failure.err
				return
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- f:
			}
		}
		if hasFailure && failure.after >= len(fragments) {
			errCh <- failure.err
			return
		}
		if block {
			<-ctx.Done()
			errCh <- ctx.Err()
		}
	}()
	return out, errCh
}
