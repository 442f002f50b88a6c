package config

import (
	"context"
	"fmt"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
	"github.com/hupe1980/moa/model/anthropic"
	"github.com/hupe1980/moa/model/gemini"
	"github.com/hupe1980/moa/model/openai"
)

// BuildClient wires the configured providers into a model.Router. Only
// providers that are the default or the target of a route are created.
// Providers with RequestsPerSecond > 0 are wrapped in a rate limiter.
func BuildClient(ctx context.Context, cfg *Config) (*model.Router, error) {
	clients := map[string]model.Client{}

	get := func(name string) (model.Client, error) {
		if c, ok := clients[name]; ok {
			return c, nil
		}
		c, err := buildProvider(ctx, name, cfg.Providers)
		if err != nil {
			return nil, err
		}
		clients[name] = c
		return c, nil
	}

	fallback, err := get(cfg.Providers.Default)
	if err != nil {
		return nil, err
	}
	router := model.NewRouter(fallback)

	for _, r := range cfg.Routes {
		c, err := get(r.Provider)
		if err != nil {
			return nil, err
		}
		router.Handle(r.Prefix, c)
	}

	return router, nil
}

func buildProvider(ctx context.Context, name string, p ProvidersConfig) (model.Client, error) {
	var (
		client model.Client
		pc     ProviderConfig
	)

	switch name {
	case ProviderTogether:
		pc = p.Together
		client = openai.NewClient(func(o *openai.Options) {
			o.APIKey = pc.APIKey
			o.BaseURL = pc.BaseURL
			if o.BaseURL == "" {
				o.BaseURL = openai.TogetherBaseURL
			}
		})
	case ProviderOpenAI:
		pc = p.OpenAI
		client = openai.NewClient(func(o *openai.Options) {
			o.APIKey = pc.APIKey
			o.BaseURL = pc.BaseURL
		})
	case ProviderAnthropic:
		pc = p.Anthropic
		client = anthropic.NewClient(func(o *anthropic.Options) {
			o.APIKey = pc.APIKey
			o.BaseURL = pc.BaseURL
		})
	case ProviderGemini:
		pc = p.Gemini
		c, err := gemini.NewClient(ctx, func(o *gemini.Options) {
			o.APIKey = pc.APIKey
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		client = c
	case ProviderMock:
		return model.NewMockClient(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrConfiguration, name)
	}

	if pc.RequestsPerSecond > 0 {
		client = model.NewRateLimited(client, pc.RequestsPerSecond, pc.Burst)
	}
	return client, nil
}
