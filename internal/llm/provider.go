package llm

import (
	"fmt"
	"strings"

	"uibridge/internal/config"
)

// FromConfig builds the provider named by cfg.Provider.
func FromConfig(cfg *config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		return NewAnthropic(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens), nil
	case "openai":
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
