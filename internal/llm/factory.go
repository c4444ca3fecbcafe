package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/nexus/internal/config"
)

const defaultOllamaEmbeddingModel = "nomic-embed-text"

// NewEmbedder builds the embedder named by cfg.Provider. An empty provider
// disables embeddings and returns nil, nil; names are then compared by
// fuzzy ratio only.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "", "none":
		return nil, nil

	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.EmbeddingModel, cfg.BaseURL), nil

	case "gemini":
		c, err := NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "ollama":
		// Ollama serves the OpenAI embeddings API under /v1 and ignores the key.
		baseURL := ollamaBaseURL(cfg.BaseURL)
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		model := cfg.EmbeddingModel
		if model == "" {
			model = defaultOllamaEmbeddingModel
		}
		return NewOpenAIEmbedder(apiKey, model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

func ollamaBaseURL(base string) string {
	if base == "" {
		base = "http://localhost:11434"
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return strings.TrimRight(base, "/") + "/v1"
}
