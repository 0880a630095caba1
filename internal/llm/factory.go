package llm

import (
	"fmt"

	"helix/internal/config"
)

// NewClient builds an LLM client from configuration. The provider
// selects between the OpenAI-compatible HTTP client and the Gemini SDK.
func NewClient(cfg *config.Config) (LLMClient, error) {
	timeout, err := cfg.LLMTimeout()
	if err != nil {
		return nil, err
	}

	switch Provider(cfg.LLM.Provider) {
	case ProviderOpenAI, "":
		oc := DefaultOpenAIConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			oc.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			oc.BaseURL = cfg.LLM.BaseURL
		}
		oc.Timeout = timeout
		return NewOpenAIClientWithConfig(oc), nil
	case ProviderGemini:
		gc := DefaultGeminiConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			gc.Model = cfg.LLM.Model
		}
		gc.Timeout = timeout
		return NewGeminiClientWithConfig(gc)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}
