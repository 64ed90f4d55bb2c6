// Package groq generates replies with Groq's hosted models through its
// OpenAI-compatible endpoint.
package groq

import (
	"github.com/sweetpotato0/voyager/contrib/provider/openai"
)

// BaseURL is Groq's OpenAI-compatible API root.
const BaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is used when no model is configured.
const DefaultModel = "llama-3.3-70b-versatile"

// Config holds Groq provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	// BaseURL overrides the Groq endpoint, mainly for tests and proxies.
	BaseURL string
}

// DefaultConfig returns default Groq configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       DefaultModel,
		MaxTokens:   2048,
		Temperature: 0.2,
	}
}

// New creates a Groq provider. It shares the OpenAI client and only swaps
// the endpoint.
func New(config *Config) *openai.Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	base := config.BaseURL
	if base == "" {
		base = BaseURL
	}
	cfg := openai.DefaultConfig()
	cfg.WithAPIKey(config.APIKey).WithBaseURL(base).WithModel(config.Model)
	cfg.MaxTokens = int64(config.MaxTokens)
	cfg.Temperature = config.Temperature
	return openai.New(cfg)
}
