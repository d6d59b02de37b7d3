package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/docrag/internal/config"
)

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama".
func NewProvider(ctx context.Context, providerType config.ProviderType, model string) (Provider, error) {
	apiKey := ""
	if envVar := config.APIKeyEnvVar(providerType); envVar != "" {
		apiKey = os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
	}

	switch providerType {
	case config.ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model), nil

	case config.ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil

	case config.ProviderGoogle:
		p, err := NewGoogleProvider(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.ProviderOllama:
		return NewOllamaProvider(os.Getenv("OLLAMA_HOST"), model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewFromConfig creates the answer-generation provider described by cfg,
// rate limited when generation.requests_per_minute is set.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	p, err := NewProvider(ctx, cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	return NewRateLimitedProvider(p, cfg.Generation.RequestsPerMinute), nil
}
