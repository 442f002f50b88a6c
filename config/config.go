package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/moa/agent"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/engine"
	"github.com/hupe1980/moa/logging"
	"github.com/hupe1980/moa/model/openai"
	"github.com/hupe1980/moa/timer"
)

// Provider names.
const (
	ProviderTogether  = "together"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOA"

// Config is the complete application configuration.
type Config struct {
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Providers  ProvidersConfig  `mapstructure:"providers" yaml:"providers"`
	Routes     []RouteConfig    `mapstructure:"routes" yaml:"routes"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// GenerationConfig holds the default generation parameters of a turn.
type GenerationConfig struct {
	AggregatorModel string   `mapstructure:"aggregator_model" yaml:"aggregator_model"`
	ReferenceModels []string `mapstructure:"reference_models" yaml:"reference_models"`
	Temperature     float64  `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens       int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	Rounds          int      `mapstructure:"rounds" yaml:"rounds"`
	// SystemPrompt holds additional instructions appended to the default
	// system prompt of new sessions.
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	// AggregationPrompt overrides the synthesis template.
	AggregationPrompt string `mapstructure:"aggregation_prompt" yaml:"aggregation_prompt,omitempty"`
}

// EngineConfig mirrors engine.Config.
type EngineConfig struct {
	TimerInterval      time.Duration `mapstructure:"timer_interval" yaml:"timer_interval"`
	ReferenceTimeout   time.Duration `mapstructure:"reference_timeout" yaml:"reference_timeout"`
	AggregationTimeout time.Duration `mapstructure:"aggregation_timeout" yaml:"aggregation_timeout"`
	TolerateFailures   bool          `mapstructure:"tolerate_failures" yaml:"tolerate_failures"`
	MaxConcurrentTurns int           `mapstructure:"max_concurrent_turns" yaml:"max_concurrent_turns"`
	EventBufferSize    int           `mapstructure:"event_buffer_size" yaml:"event_buffer_size"`
}

// ProvidersConfig configures the completion backends. Default receives
// every model no route matches.
type ProvidersConfig struct {
	Default   string         `mapstructure:"default" yaml:"default"`
	Together  ProviderConfig `mapstructure:"together" yaml:"together"`
	OpenAI    ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Gemini    ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
}

// ProviderConfig configures a single backend.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// RequestsPerSecond limits calls to the backend; 0 disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second,omitempty"`
	Burst             int     `mapstructure:"burst" yaml:"burst,omitempty"`
}

// RouteConfig sends every model starting with Prefix to Provider.
type RouteConfig struct {
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	// DataDir holds one folder per user. Empty keeps sessions in memory.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	Format    string `mapstructure:"format" yaml:"format"`
	AddSource bool   `mapstructure:"add_source" yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables the endpoint.
	Addr      string `mapstructure:"addr" yaml:"addr,omitempty"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// Load reads the configuration. An empty path searches moa.yaml in the
// working directory and in $HOME/.moa; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("moa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.moa")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return unmarshal(v)
}

// Default returns the built-in configuration with environment overrides.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		panic(err) // defaults always decode
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("providers.together.api_key", "MOA_PROVIDERS_TOGETHER_API_KEY", "TOGETHER_API_KEY")
	_ = v.BindEnv("providers.openai.api_key", "MOA_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("providers.anthropic.api_key", "MOA_PROVIDERS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("providers.gemini.api_key", "MOA_PROVIDERS_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Generation defaults
	v.SetDefault("generation.aggregator_model", core.DefaultReferenceModels[0])
	v.SetDefault("generation.reference_models", core.DefaultReferenceModels)
	v.SetDefault("generation.temperature", core.DefaultTemperature)
	v.SetDefault("generation.max_tokens", core.DefaultMaxTokens)
	v.SetDefault("generation.rounds", 1)
	v.SetDefault("generation.system_prompt", "")
	v.SetDefault("generation.aggregation_prompt", "")

	// Engine defaults
	v.SetDefault("engine.timer_interval", timer.DefaultInterval)
	v.SetDefault("engine.reference_timeout", 2*time.Minute)
	v.SetDefault("engine.aggregation_timeout", 5*time.Minute)
	v.SetDefault("engine.tolerate_failures", false)
	v.SetDefault("engine.max_concurrent_turns", engine.DefaultConfig.MaxConcurrentTurns)
	v.SetDefault("engine.event_buffer_size", engine.DefaultConfig.EventBufferSize)

	// Provider defaults
	v.SetDefault("providers.default", ProviderTogether)
	v.SetDefault("providers.together.base_url", openai.TogetherBaseURL)
	for _, p := range []string{ProviderTogether, ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".requests_per_second", 0)
		v.SetDefault("providers."+p+".burst", 1)
	}
	v.SetDefault("providers.openai.base_url", "")
	v.SetDefault("providers.anthropic.base_url", "")
	v.SetDefault("providers.gemini.base_url", "")

	// Storage defaults
	v.SetDefault("storage.data_dir", "user_data")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)

	// Metrics defaults
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "moa")
}

// Validate checks the configuration for values that can not work.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if !knownProvider(c.Providers.Default) {
		return fmt.Errorf("%w: unknown default provider %q", core.ErrConfiguration, c.Providers.Default)
	}
	for _, r := range c.Routes {
		if r.Prefix == "" {
			return fmt.Errorf("%w: route without prefix", core.ErrConfiguration)
		}
		if !knownProvider(r.Provider) {
			return fmt.Errorf("%w: route %q uses unknown provider %q", core.ErrConfiguration, r.Prefix, r.Provider)
		}
	}
	if c.Engine.TimerInterval <= 0 {
		return fmt.Errorf("%w: timer interval must be positive", core.ErrConfiguration)
	}
	if c.Engine.ReferenceTimeout < 0 || c.Engine.AggregationTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", core.ErrConfiguration)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", core.ErrConfiguration, c.Logging.Format)
	}
	if c.Generation.AggregationPrompt != "" {
		if _, err := agent.NewPromptBuilder(c.Generation.AggregationPrompt); err != nil {
			return err
		}
	}
	return nil
}

// Params returns the default generation parameters.
func (c *Config) Params() core.Params {
	return core.Params{
		Temperature:     c.Generation.Temperature,
		MaxTokens:       c.Generation.MaxTokens,
		AggregatorModel: c.Generation.AggregatorModel,
		ReferenceModels: append([]string(nil), c.Generation.ReferenceModels...),
		Rounds:          c.Generation.Rounds,
	}
}

// EngineConfig converts the engine section.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		TimerInterval:      c.Engine.TimerInterval,
		ReferenceTimeout:   c.Engine.ReferenceTimeout,
		AggregationTimeout: c.Engine.AggregationTimeout,
		TolerateFailures:   c.Engine.TolerateFailures,
		MaxConcurrentTurns: c.Engine.MaxConcurrentTurns,
		EventBufferSize:    c.Engine.EventBufferSize,
	}
}

// PromptBuilder returns the configured aggregation prompt builder.
func (c *Config) PromptBuilder() (*agent.PromptBuilder, error) {
	if c.Generation.AggregationPrompt == "" {
		return agent.DefaultPromptBuilder(), nil
	}
	return agent.NewPromptBuilder(c.Generation.AggregationPrompt)
}

// Logger builds the structured logger of the logging section.
func (c *Config) Logger() (*logging.MoALogger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, c.Logging.Format, c.Logging.AddSource), nil
}

// Marshal renders the configuration as YAML with API keys redacted.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	redacted.Providers.Together.APIKey = redact(c.Providers.Together.APIKey)
	redacted.Providers.OpenAI.APIKey = redact(c.Providers.OpenAI.APIKey)
	redacted.Providers.Anthropic.APIKey = redact(c.Providers.Anthropic.APIKey)
	redacted.Providers.Gemini.APIKey = redact(c.Providers.Gemini.APIKey)
	return yaml.Marshal(&redacted)
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "********"
}

func knownProvider(name string) bool {
	switch name {
	case ProviderTogether, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMock:
		return true
	default:
		return false
	}
}
