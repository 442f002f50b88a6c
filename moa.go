// Package moa is the entry point of the Mixture-of-Agents pipeline.
//
// A MoA instance wires a completion client, the turn engine, a session store,
// logging and metrics together:
//
//	m := moa.New(client)
//	sess, _ := m.LoadSession("user@example.com")
//	res := m.RunTurn(ctx, sess, "What is a mixture of agents?", func(ev core.Event) {
//	    if n := ev.Notice(); n != "" {
//	        fmt.Println(n)
//	    }
//	})
//
// Use NewFromConfig to build the providers, store and logger from a
// config.Config.
package moa

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/moa/agent"
	"github.com/hupe1980/moa/config"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/engine"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/metrics"
	"github.com/hupe1980/moa/model"
	"github.com/hupe1980/moa/session"
)

// Options configures a MoA instance.
type Options struct {
	// EngineConfig contains the engine's operational parameters.
	EngineConfig engine.Config

	// Params are the default generation parameters. A session's selected
	// models replace the reference models.
	Params core.Params

	// SystemInstructions are applied to fresh sessions as additional
	// instructions to the default system prompt.
	SystemInstructions string

	// SessionStore loads sessions and receives a snapshot after every turn.
	SessionStore core.SessionStore

	PromptBuilder *agent.PromptBuilder
	Callbacks     *engine.CallbackManager
	Metrics       metrics.Recorder
	Logger        logging.Logger
}

// MoA runs Mixture-of-Agents turns for sessions.
type MoA struct {
	opts   Options
	engine *engine.Engine
}

// New creates a MoA instance on top of client.
func New(client model.Client, optFns ...func(o *Options)) *MoA {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Params:       core.DefaultParams(),
		SessionStore: session.NewInMemoryStore(),
		Metrics:      metrics.NoOp{},
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(client, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.SessionStore = opts.SessionStore
		o.PromptBuilder = opts.PromptBuilder
		o.Callbacks = opts.Callbacks
		o.Metrics = opts.Metrics
		o.Logger = opts.Logger
	})

	return &MoA{opts: opts, engine: e}
}

// NewFromConfig builds the provider router, the session store and the logger
// described by cfg. optFns run last and may override any of them.
func NewFromConfig(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*MoA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := config.BuildClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build client: %w", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	builder, err := cfg.PromptBuilder()
	if err != nil {
		return nil, err
	}

	var store core.SessionStore = session.NewInMemoryStore()
	if cfg.Storage.DataDir != "" {
		store = session.NewFileStore(cfg.Storage.DataDir)
	}

	fns := append([]func(o *Options){func(o *Options) {
		o.EngineConfig = cfg.EngineConfig()
		o.Params = cfg.Params()
		o.SystemInstructions = cfg.Generation.SystemPrompt
		o.SessionStore = store
		o.PromptBuilder = builder
		o.Logger = logger
	}}, optFns...)

	return New(client, fns...), nil
}

// Engine exposes the underlying turn engine.
func (m *MoA) Engine() *engine.Engine { return m.engine }

// Params returns the generation parameters used for sess: the configured
// defaults with the session's selected models as reference models. A session
// without any selected model queries the aggregator alone.
func (m *MoA) Params(sess *core.Session) core.Params {
	p := m.opts.Params
	p.ReferenceModels = append([]string(nil), p.ReferenceModels...)
	if sess != nil {
		p.ReferenceModels = SelectedReferences(sess, p.AggregatorModel)
	}
	return p
}

// SelectedReferences returns the session's selected models, or only the
// aggregator when nothing is selected.
func SelectedReferences(sess *core.Session, aggregator string) []string {
	if models := sess.Models(); len(models) > 0 {
		return models
	}
	return []string{aggregator}
}

// SetParams replaces the default generation parameters.
func (m *MoA) SetParams(p core.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.opts.Params = p
	return nil
}

// LoadSession returns the stored session of id or a fresh one. Sessions still
// on the default model selection are switched to the configured reference
// models.
func (m *MoA) LoadSession(id string) (*core.Session, error) {
	sess, err := m.opts.SessionStore.Load(id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if m.opts.SystemInstructions != "" && sess.UserSystemPrompt == "" && sess.Len() == 1 {
		sess.UpdateSystemInstructions(m.opts.SystemInstructions)
	}
	// an untouched default selection follows the configured reference models
	if len(m.opts.Params.ReferenceModels) > 0 && slices.Equal(sess.Models(), core.DefaultReferenceModels) {
		sess.SetSelectedModels(m.opts.Params.ReferenceModels)
	}
	return sess, nil
}

// SaveSession stores a snapshot of sess.
func (m *MoA) SaveSession(sess *core.Session) error {
	if err := m.opts.SessionStore.Save(sess); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

// RunTurn executes one turn for sess and blocks until it finished.
func (m *MoA) RunTurn(ctx context.Context, sess *core.Session, prompt string, progress engine.ProgressFunc) core.TurnResult {
	return m.engine.RunTurn(ctx, sess, prompt, m.Params(sess), progress)
}

// Invoke starts a turn asynchronously. See engine.Engine.Invoke.
func (m *MoA) Invoke(ctx context.Context, sess *core.Session, prompt string) (string, <-chan core.Event, <-chan core.TurnResult) {
	return m.engine.Invoke(ctx, sess, prompt, m.Params(sess))
}

// RunTurnSync runs a turn through Invoke and returns the result together
// with every event.
func (m *MoA) RunTurnSync(ctx context.Context, sess *core.Session, prompt string) (core.TurnResult, []core.Event) {
	return m.engine.InvokeSync(ctx, sess, prompt, m.Params(sess))
}

// StopTurn cancels a running turn.
func (m *MoA) StopTurn(turnID string) error { return m.engine.StopTurn(turnID) }
