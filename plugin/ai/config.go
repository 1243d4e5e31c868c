package ai

import (
	"context"
	"log/slog"

	"github.com/hrygo/slotwise/internal/profile"
)

// NewCompleterFromProfile builds the Completer selected by the profile.
// When AI is disabled or has no credentials, the returned Completer always
// reports FailureDisabled so callers go straight to their fallback.
func NewCompleterFromProfile(ctx context.Context, p *profile.Profile) (Completer, error) {
	if !p.IsAIEnabled() {
		slog.Info("AI completion disabled, keyword fallback only",
			"enabled", p.AIEnabled,
			"provider", p.AILLMProvider)
		return DisabledCompleter{}, nil
	}

	switch p.AILLMProvider {
	case "gemini":
		return NewGeminiCompleter(ctx, p.AILLMAPIKey, p.AILLMModel)
	default:
		return NewProvider(ProviderConfig{
			BaseURL: p.AILLMBaseURL,
			APIKey:  p.AILLMAPIKey,
			Model:   p.AILLMModel,
		}), nil
	}
}
