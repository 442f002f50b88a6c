package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/moa"
	"github.com/hupe1980/moa/config"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/metrics"
)

// DefaultUser keys the persisted session when --user is not given.
const DefaultUser = "default"

// app holds the state shared by all commands of one invocation.
type app struct {
	configPath string
	userID     string
	logLevel   string

	cfg    *config.Config
	moa    *moa.MoA
	logger logging.Logger

	metricsSrv *http.Server
}

// NewRootCommand builds the complete command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "moa",
		Short: "Mixture-of-Agents chat in the terminal",
		Long: `moa queries several reference models in parallel and lets an aggregator
model synthesize their answers into one response.

Configuration is read from moa.yaml (working directory or $HOME/.moa) or the
file given with --config. Every key can be overridden with MOA_ environment
variables, e.g. MOA_GENERATION_TEMPERATURE=0.7.

Examples:
  # Ask a single question
  moa ask "What is the capital of France?"

  # Start an interactive chat with persisted history
  moa chat --user me@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&a.userID, "user", "u", DefaultUser, "user identifier keying the persisted session")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newModelsCommand(a),
		newConfigCommand(a),
	)

	return rootCmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// build wires the pipeline. It is called by the commands that run turns.
func (a *app) build(ctx context.Context) error {
	logger, err := a.cfg.Logger()
	if err != nil {
		return err
	}
	a.logger = logger.WithComponent("cli").WithContext("user_id", a.userID)

	var recorder metrics.Recorder = metrics.NoOp{}

	if a.cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheus(reg, a.cfg.Metrics.Namespace)
		a.serveMetrics(reg)
	}

	m, err := moa.NewFromConfig(ctx, a.cfg, func(o *moa.Options) {
		o.Metrics = recorder
	})
	if err != nil {
		return err
	}
	a.moa = m
	return nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	a.metricsSrv = &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "addr", a.cfg.Metrics.Addr, "error", err.Error())
		}
	}()
}

func (a *app) close(ctx context.Context) error {
	if a.metricsSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.metricsSrv.Shutdown(ctx)
}
