package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/antoniostano/helpdesk/internal/observability"
)

// Config controls extractor construction.
type Config struct {
	Mode            string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
}

// New builds the configured provider wrapped in Safe.
func New(cfg Config, logger *slog.Logger, metrics *observability.Metrics) (*Safe, error) {
	inner, provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewSafe(inner, provider, logger, metrics), nil
}

func newProvider(cfg Config) (Extractor, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			return NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel), "openai", nil
		}
		if strings.TrimSpace(cfg.AnthropicAPIKey) != "" {
			return NewAnthropicExtractor(cfg.AnthropicAPIKey, cfg.AnthropicModel), "anthropic", nil
		}
		return NewPassthrough(), "passthrough", nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY is required for openai name extractor")
		}
		return NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel), "openai", nil
	case "anthropic":
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic name extractor")
		}
		return NewAnthropicExtractor(cfg.AnthropicAPIKey, cfg.AnthropicModel), "anthropic", nil
	case "passthrough":
		return NewPassthrough(), "passthrough", nil
	default:
		return nil, "", fmt.Errorf("unsupported name extractor %q (expected auto|openai|anthropic|passthrough)", cfg.Mode)
	}
}

// UsesTextGeneration reports whether the provider calls a language model.
func (s *Safe) UsesTextGeneration() bool {
	return s.provider == "openai" || s.provider == "anthropic"
}
