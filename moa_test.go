package moa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/moa/config"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
	"github.com/hupe1980/moa/session"
)

func testParams() core.Params {
	p := core.DefaultParams()
	p.AggregatorModel = "agg"
	p.ReferenceModels = []string{"r1", "r2"}
	return p
}

func TestMoA_RunTurn(t *testing.T) {
	client := model.NewMockClient().
		SetOutput("r1", "one").
		SetOutput("r2", "two").
		SetStream("agg", "syn", "thesis")

	m := New(client, func(o *Options) { o.Params = testParams() })

	sess, err := m.LoadSession("alice")
	require.NoError(t, err)

	var notices []string
	res := m.RunTurn(context.Background(), sess, "Hi", func(ev core.Event) {
		if ev.Kind == core.EventReferenceDone || ev.Kind == core.EventAggregationStarted {
			notices = append(notices, ev.Notice())
		}
	})
	require.True(t, res.OK())
	assert.Equal(t, "synthesis", res.Message.Content)
	assert.Len(t, notices, 3)
	assert.Equal(t, "Aggregating results & querying the aggregate model...", notices[2])

	// the engine saved the session after the turn
	stored, err := m.LoadSession("alice")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Len())
}

func TestMoA_ParamsUseSessionSelection(t *testing.T) {
	m := New(model.NewMockClient(), func(o *Options) { o.Params = testParams() })

	sess := core.NewSession("bob")
	sess.SetSelectedModels([]string{"x"})
	assert.Equal(t, []string{"x"}, m.Params(sess).ReferenceModels)

	sess.SetSelectedModels(nil)
	assert.Equal(t, []string{"agg"}, m.Params(sess).ReferenceModels)
	assert.Equal(t, []string{"r1", "r2"}, m.Params(nil).ReferenceModels)
}

func TestMoA_EmptySelectionQueriesAggregatorOnly(t *testing.T) {
	params := testParams()
	params.AggregatorModel = "A"
	params.ReferenceModels = []string{"A", "R1", "R2"}

	client := model.NewMockClient()
	m := New(client, func(o *Options) { o.Params = params })

	sess, err := m.LoadSession("grace")
	require.NoError(t, err)
	sess.SetSelectedModels(nil)

	var notices []string
	res := m.RunTurn(context.Background(), sess, "Hi", func(ev core.Event) {
		if ev.Kind == core.EventReferenceDone {
			notices = append(notices, ev.Notice())
		}
	})
	require.True(t, res.OK())

	assert.Equal(t, []string{"Finished querying A."}, notices)
	assert.Empty(t, client.RequestsFor("R1"))
	assert.Empty(t, client.RequestsFor("R2"))
	assert.Len(t, client.RequestsFor("A"), 2, "one reference call plus the aggregation")
	require.Len(t, res.References, 1)
	assert.Equal(t, "A", res.References[0].Model)
}

func TestMoA_SetParams(t *testing.T) {
	m := New(model.NewMockClient())

	bad := testParams()
	bad.MaxTokens = 0
	assert.ErrorIs(t, m.SetParams(bad), core.ErrConfiguration)

	good := testParams()
	good.Temperature = 0.1
	require.NoError(t, m.SetParams(good))
	assert.Equal(t, 0.1, m.Params(nil).Temperature)
}

func TestMoA_RunTurnSync(t *testing.T) {
	client := model.NewMockClient().SetError("r1", errors.New("down"))
	m := New(client, func(o *Options) { o.Params = testParams() })

	sess := core.NewSession("carol")
	sess.SetSelectedModels([]string{"r1", "r2"})

	res, events := m.RunTurnSync(context.Background(), sess, "Hi")
	assert.ErrorIs(t, res.Err, core.ErrReferenceCall)
	require.NotEmpty(t, events)
	assert.Equal(t, core.EventTurnFailed, events[len(events)-1].Kind)
}

func TestMoA_SystemInstructions(t *testing.T) {
	m := New(model.NewMockClient(), func(o *Options) { o.SystemInstructions = "Answer in haiku." })

	sess, err := m.LoadSession("dave")
	require.NoError(t, err)
	assert.Equal(t, core.CombinedSystemPrompt(core.DefaultSystemPrompt, "Answer in haiku."), sess.SystemPrompt())
	assert.Equal(t, "Answer in haiku.", sess.UserSystemPrompt)
}

func TestMoA_SaveSession(t *testing.T) {
	store := session.NewInMemoryStore()
	m := New(model.NewMockClient(), func(o *Options) { o.SessionStore = store })

	sess := core.NewSession("erin")
	sess.AppendMessage(core.UserMessage("hello"))
	require.NoError(t, m.SaveSession(sess))
	assert.Equal(t, []string{"erin"}, store.List())

	assert.Error(t, m.SaveSession(core.NewSession("../escape")))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Default = config.ProviderMock
	cfg.Storage.DataDir = t.TempDir()
	cfg.Generation.AggregatorModel = "agg"
	cfg.Generation.ReferenceModels = []string{"r1"}

	m, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)

	sess, err := m.LoadSession("frank")
	require.NoError(t, err)

	res := m.RunTurn(context.Background(), sess, "Hi", nil)
	require.True(t, res.OK())
	assert.Equal(t, "Mock response from agg", res.Message.Content)

	reloaded, err := m.LoadSession("frank")
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Temperature = 7

	_, err := NewFromConfig(context.Background(), cfg)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestMoA_LoadSessionSeedsConfiguredModels(t *testing.T) {
	m := New(model.NewMockClient(), func(o *Options) { o.Params = testParams() })

	sess, err := m.LoadSession("carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, sess.Models())

	sess.SetSelectedModels([]string{"x"})
	require.NoError(t, m.SaveSession(sess))

	stored, err := m.LoadSession("carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, stored.Models())
}
