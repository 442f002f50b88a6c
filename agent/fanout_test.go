package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
)

func conversation() []core.Message {
	return []core.Message{core.SystemMessage("S"), core.UserMessage("Q")}
}

func TestFanOut_CollectsOneOutputPerModelInOrder(t *testing.T) {
	client := model.NewMockClient().
		SetOutput("A", "a").
		SetOutput("B", "b").
		SetDelay("A", 20*time.Millisecond)

	refs, err := NewFanOut(client).Run(context.Background(), conversation(), []string{"A", "B"}, 0.5, 128)
	require.NoError(t, err)
	assert.Equal(t, core.References{{Model: "A", Text: "a"}, {Model: "B", Text: "b"}}, refs)

	for _, m := range []string{"A", "B"} {
		reqs := client.RequestsFor(m)
		require.Len(t, reqs, 1)
		assert.Equal(t, conversation(), reqs[0].Messages)
		assert.Equal(t, 0.5, reqs[0].Temperature)
		assert.Equal(t, 128, reqs[0].MaxTokens)
	}
}

func TestFanOut_StrictFailureReturnsNoReferences(t *testing.T) {
	boom := errors.New("boom")
	client := model.NewMockClient().
		SetOutput("A", "a").
		SetError("B", boom)

	refs, err := NewFanOut(client).Run(context.Background(), conversation(), []string{"A", "B"}, 0.5, 128)
	require.Error(t, err)
	assert.Nil(t, refs)
	assert.ErrorIs(t, err, core.ErrReferenceCall)
	assert.ErrorIs(t, err, boom)

	var refErr *core.ReferenceCallError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "B", refErr.Model)
}

func TestFanOut_StrictFailureCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	client := model.NewMockClient().
		SetBlocking("slow").
		SetError("bad", boom)

	done := make(chan error, 1)
	go func() {
		_, err := NewFanOut(client).Run(context.Background(), conversation(), []string{"slow", "bad"}, 0.5, 128)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("fan-out did not cancel the blocked sibling")
	}
}

func TestFanOut_StrictFailureReportsOnlyTheFailingModel(t *testing.T) {
	client := model.NewMockClient().
		SetBlocking("slow").
		SetError("bad", errors.New("boom"))

	var (
		mu       sync.Mutex
		reported = map[string]error{}
	)
	f := NewFanOut(client, func(o *FanOutOptions) {
		o.OnComplete = func(_ int, m string, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			reported[m] = err
		}
	})

	_, err := f.Run(context.Background(), conversation(), []string{"slow", "bad"}, 0.5, 128)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1, "the cancelled sibling is not reported")
	assert.Error(t, reported["bad"])
}

func TestFanOut_TolerateFailures(t *testing.T) {
	client := model.NewMockClient().
		SetOutput("A", "a").
		SetError("B", errors.New("boom")).
		SetOutput("C", "c")

	f := NewFanOut(client, func(o *FanOutOptions) { o.TolerateFailures = true })

	refs, err := f.Run(context.Background(), conversation(), []string{"A", "B", "C"}, 0.5, 128)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, refs.Texts())
}

func TestFanOut_TolerateFailuresAllFail(t *testing.T) {
	client := model.NewMockClient().
		SetError("A", errors.New("a down")).
		SetError("B", errors.New("b down"))

	f := NewFanOut(client, func(o *FanOutOptions) { o.TolerateFailures = true })

	refs, err := f.Run(context.Background(), conversation(), []string{"A", "B"}, 0.5, 128)
	assert.Nil(t, refs)
	assert.ErrorIs(t, err, core.ErrReferenceCall)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestFanOut_Timeout(t *testing.T) {
	client := model.NewMockClient().SetBlocking("A")

	f := NewFanOut(client, func(o *FanOutOptions) { o.Timeout = 20 * time.Millisecond })

	_, err := f.Run(context.Background(), conversation(), []string{"A"}, 0.5, 128)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, core.ErrReferenceCall)
}

func TestFanOut_EmptyWorkingSet(t *testing.T) {
	_, err := NewFanOut(model.NewMockClient()).Run(context.Background(), conversation(), nil, 0.5, 128)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestFanOut_OnComplete(t *testing.T) {
	client := model.NewMockClient().SetError("C", errors.New("boom"))

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	f := NewFanOut(client, func(o *FanOutOptions) {
		o.TolerateFailures = true
		o.OnComplete = func(round int, m string, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 1, round)
			seen[m] = err == nil
		}
	})

	_, err := f.Run(context.Background(), conversation(), []string{"A", "B", "C"}, 0.5, 128)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": false}, seen)
}

func TestLayers_LaterRoundsSeePreviousReferences(t *testing.T) {
	client := model.NewMockClient().
		SetOutput("A", "a").
		SetOutput("B", "b")

	var rounds []int
	l := &Layers{
		FanOut: NewFanOut(client),
		Rounds: 2,
		OnRound: func(round int, refs core.References) {
			rounds = append(rounds, round)
			assert.Len(t, refs, 2)
		},
	}

	refs, err := l.Run(context.Background(), conversation(), []string{"A", "B"}, 0.5, 128)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, refs.Texts())
	assert.Equal(t, []int{1, 2}, rounds)

	reqs := client.RequestsFor("A")
	require.Len(t, reqs, 2)
	assert.Equal(t, conversation(), reqs[0].Messages)
	assert.Contains(t, reqs[1].Messages[0].Content, "1. a\n2. b")
	assert.Equal(t, "Q", reqs[1].Messages[1].Content)
}

func TestLayers_DefaultsToSingleRound(t *testing.T) {
	client := model.NewMockClient()

	l := &Layers{FanOut: NewFanOut(client)}
	_, err := l.Run(context.Background(), conversation(), []string{"A"}, 0.5, 128)
	require.NoError(t, err)
	assert.Len(t, client.Requests(), 1)
}

func TestLayers_StopsOnFailure(t *testing.T) {
	client := model.NewMockClient().SetError("A", errors.New("boom"))

	called := false
	l := &Layers{
		FanOut:  NewFanOut(client),
		Rounds:  3,
		OnRound: func(int, core.References) { called = true },
	}
	_, err := l.Run(context.Background(), conversation(), []string{"A"}, 0.5, 128)
	assert.ErrorIs(t, err, core.ErrReferenceCall)
	assert.False(t, called)
	assert.Len(t, client.Requests(), 1)
}
