package embeddings

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/docrag/internal/config"
)

// ollamaDimensions holds the output size of common Ollama embedding models.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// NewFromConfig builds the embedder selected by cfg. API keys are read from
// the provider's conventional environment variable.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Embedder, error) {
	provider, model := cfg.ResolvedEmbedding()

	apiKey := ""
	if envVar := config.APIKeyEnvVar(provider); envVar != "" {
		apiKey = os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s is required for %s embeddings", envVar, provider)
		}
	}

	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model)), nil
	case config.ProviderGoogle:
		e, err := NewGoogleEmbedder(ctx, apiKey, GoogleModel(model))
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOllama:
		dims, ok := ollamaDimensions[model]
		if !ok {
			dims = 768
		}
		return NewOllamaEmbedder(model, dims, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
