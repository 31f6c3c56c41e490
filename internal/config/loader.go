package config

import (
	"os"
	"strings"

	"github.com/josephgoksu/VeriWing/internal/llm"
	"github.com/josephgoksu/VeriWing/types"
)

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys first, then provider-specific env vars.
func ResolveAPIKey(cfg *types.AppConfig, provider llm.Provider) string {
	if cfg != nil {
		if key := strings.TrimSpace(cfg.LLM.APIKeys[string(provider)]); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
