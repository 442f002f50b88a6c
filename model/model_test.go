package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/moa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(out <-chan string, errCh <-chan error) ([]string, error) {
	var frags []string
	for f := range out {
		frags = append(frags, f)
	}
	return frags, <-errCh
}

func TestMockClient_Complete(t *testing.T) {
	m := NewMockClient().SetOutput("M1", "Hi").SetError("M2", errors.New("down"))

	out, err := m.Complete(context.Background(), Request{Model: "M1"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", out)

	_, err = m.Complete(context.Background(), Request{Model: "M2"})
	assert.EqualError(t, err, "down")

	out, err = m.Complete(context.Background(), Request{Model: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response from other", out)

	assert.Len(t, m.Requests(), 3)
	assert.Len(t, m.RequestsFor("M1"), 1)
}

func TestMockClient_StreamAndFailure(t *testing.T) {
	m := NewMockClient().SetStream("A", "Hel", "lo!")

	frags, err := drain(m.CompleteStream(context.Background(), Request{Model: "A"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello!", strings.Join(frags, ""))

	m.SetStreamError("A", 1, errors.New("cut"))
	frags, err = drain(m.CompleteStream(context.Background(), Request{Model: "A"}))
	assert.EqualError(t, err, "cut")
	assert.Equal(t, []string{"Hel"}, frags)
}

func TestMockClient_BlockingHonoursContext(t *testing.T) {
	m := NewMockClient().SetBlocking("slow")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Complete(ctx, Request{Model: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockClient_RecordsCopies(t *testing.T) {
	m := NewMockClient()
	msgs := []core.Message{core.SystemMessage("s"), core.UserMessage("u")}
	_, _ = m.Complete(context.Background(), Request{Model: "x", Messages: msgs})
	msgs[1].Content = "changed"

	assert.Equal(t, "u", m.Requests()[0].Messages[1].Content)
}

func TestRouter_LongestPrefixAndFallback(t *testing.T) {
	fallback := NewMockClient().SetOutput("Qwen/Qwen2-72B-Instruct", "together")
	anthropic := NewMockClient().SetOutput("claude-3-5-sonnet", "anthropic")
	special := NewMockClient().SetOutput("claude-3-5-sonnet", "special")

	r := NewRouter(fallback).
		Handle("claude-", anthropic).
		Handle("claude-3-5", special)

	out, err := r.Complete(context.Background(), Request{Model: "claude-3-5-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "special", out)

	out, err = r.Complete(context.Background(), Request{Model: "Qwen/Qwen2-72B-Instruct"})
	require.NoError(t, err)
	assert.Equal(t, "together", out)
}

func TestRouter_NoFallback(t *testing.T) {
	r := NewRouter(nil).Handle("gemini-", NewMockClient())

	_, err := r.Complete(context.Background(), Request{Model: "gpt-4o"})
	assert.Error(t, err)

	_, err = drain(r.CompleteStream(context.Background(), Request{Model: "gpt-4o"}))
	assert.Error(t, err)
}

func TestRateLimited_WaitHonoursContext(t *testing.T) {
	rl := NewRateLimited(NewMockClient(), 0.001, 1)

	_, err := rl.Complete(context.Background(), Request{Model: "a"})
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rl.Complete(ctx, Request{Model: "a"})
	assert.Error(t, err)

	_, err = drain(rl.CompleteStream(ctx, Request{Model: "a"}))
	assert.Error(t, err)
}

func TestRateLimited_Unlimited(t *testing.T) {
	rl := NewRateLimited(NewMockClient().SetStream("a", "x"), 0, 0)
	for i := 0; i < 5; i++ {
		frags, err := drain(rl.CompleteStream(context.Background(), Request{Model: "a"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, frags)
	}
}
