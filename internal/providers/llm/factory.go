package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

// NewProvider creates the configured oracle.
func NewProvider(ctx context.Context, cfg *config.LLMConfig, timeout time.Duration) (core.Oracle, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model, timeout), nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Model, timeout), nil
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, cfg.Model, timeout), nil
	case "azure":
		if cfg.AzureEndpoint == "" || cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_DEPLOYMENT")
		}
		return NewAzureOpenAI(cfg.AzureEndpoint, cfg.AzureAPIKey, cfg.AzureDeployment, cfg.AzureAPIVersion, timeout), nil
	case "custom":
		if cfg.CustomBaseURL == "" {
			return nil, fmt.Errorf("custom provider requires CUSTOM_OPENAI_BASE_URL")
		}
		return NewCustomOpenAI(cfg.CustomBaseURL, cfg.CustomAPIKey, cfg.Model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
