// Package provider builds the text generator selected by configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/voyager/agent"
	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/contrib/provider/claude"
	"github.com/sweetpotato0/voyager/contrib/provider/gemini"
	"github.com/sweetpotato0/voyager/contrib/provider/groq"
	"github.com/sweetpotato0/voyager/contrib/provider/openai"
)

// New creates the generator named by cfg. The returned close function
// releases any client resources.
func New(ctx context.Context, cfg config.ProviderConfig) (agent.LLMClient, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Name {
	case config.ProviderGroq:
		return groq.New(&groq.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		}), noop, nil
	case config.ProviderOpenAI:
		oc := openai.DefaultConfig()
		oc.WithAPIKey(cfg.APIKey).WithBaseURL(cfg.BaseURL)
		if cfg.Model != "" {
			oc.WithModel(cfg.Model)
		}
		oc.MaxTokens = int64(cfg.MaxTokens)
		oc.Temperature = cfg.Temperature
		return openai.New(oc), noop, nil
	case config.ProviderClaude:
		cc := claude.DefaultConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.Model != "" {
			cc.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			cc.MaxTokens = int64(cfg.MaxTokens)
		}
		cc.Temperature = cfg.Temperature
		return claude.New(cc), noop, nil
	case config.ProviderGemini:
		gc := gemini.DefaultConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			gc.MaxTokens = cfg.MaxTokens
		}
		gc.Temperature = float32(cfg.Temperature)
		gc.Endpoint = cfg.BaseURL
		p, err := gemini.New(ctx, gc)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
