package correct

import (
	"context"

	"rfsouza/textfix/config"
)

// Provider is the capability interface a correction backend implements.
// The prompt is fully assembled by the service; a backend only has to
// run it and return the raw model output.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates a correction backend based on configuration.
func NewProvider(ctx context.Context, cfg config.CorrectionConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, newError(KindConfig, "api_key is required for the gemini provider (set GEMINI_API_KEY or config)")
		}
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		if cfg.APIKey == "" {
			return nil, newError(KindConfig, "api_key is required for the openai provider (set OPENAI_API_KEY or config)")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, newError(KindConfig, "unknown provider: %s", cfg.Provider)
	}
}
