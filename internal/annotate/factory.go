// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"fmt"

	"github.com/li4oya/paper-collect-and-analysis/internal/httputil"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// NewBackend builds the backend selected by cfg.Provider. An empty provider
// selects the OpenAI-compatible backend.
func NewBackend(ctx context.Context, cfg types.AIConfig) (Backend, error) {
	client := httputil.NewClient(cfg.Timeout)

	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai-compatible backend: API key is required")
		}
		return &OpenAIBackend{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Stream:  cfg.Stream,
			Client:  client,
		}, nil

	case types.ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude backend: API key is required")
		}
		return &ClaudeBackend{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Client:  client,
		}, nil

	case types.ProviderGemini:
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, client)

	default:
		return nil, fmt.Errorf("unknown AI provider %q (want %s, %s or %s)",
			cfg.Provider, types.ProviderOpenAI, types.ProviderClaude, types.ProviderGemini)
	}
}
