package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
)

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-haiku-3-5-20241022" -> Claude
// - "claude/claude-haiku-3-5-20241022" -> Claude (with prefix)
// - "gemini-3-flash" -> Gemini
// - "gemini/gemini-3-flash" -> Gemini (with prefix)
// - Empty string -> uses default provider from config
func DetectProvider(model string, llmConfig *common.LLMConfig) common.LLMProvider {
	if model == "" {
		return llmConfig.DefaultProvider
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return common.LLMProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return common.LLMProviderGemini
	}

	// Check for model name patterns
	if strings.HasPrefix(model, "claude-") {
		return common.LLMProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return common.LLMProviderGemini
	}

	// Default to configured provider
	return llmConfig.DefaultProvider
}

// NewScoringService creates the scoring service for the configured provider.
// The API key is resolved with environment-first priority so an operator
// override always beats the key pasted into the settings page.
func NewScoringService(ctx context.Context, cfg *common.Config, settings interfaces.SettingsStorage, logger arbor.ILogger) (interfaces.ScoringService, error) {
	provider := DetectProvider("", &cfg.LLM)

	switch provider {
	case common.LLMProviderClaude:
		apiKey, err := common.ResolveAPIKey(ctx, settings, common.LLMProviderClaude, cfg.Claude.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
		}
		return NewClaudeService(&cfg.Claude, apiKey, logger)

	case common.LLMProviderGemini:
		apiKey, err := common.ResolveAPIKey(ctx, settings, common.LLMProviderGemini, cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
		}
		return NewGeminiService(&cfg.Gemini, apiKey, logger)

	default:
		return nil, fmt.Errorf("unsupported scoring provider: %s", provider)
	}
}
