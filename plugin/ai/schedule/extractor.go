package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/slotwise/plugin/ai"
	"github.com/hrygo/slotwise/plugin/ai/timeout"
)

// IntentExtractor turns a user message into a ParsedIntent, asking the
// language model first and reading keywords when the model cannot answer.
type IntentExtractor struct {
	completer ai.Completer
	rules     PromptRules
}

// NewIntentExtractor creates an extractor. A nil completer means keyword
// extraction only.
func NewIntentExtractor(completer ai.Completer, rules PromptRules) *IntentExtractor {
	if completer == nil {
		completer = ai.DisabledCompleter{}
	}
	return &IntentExtractor{completer: completer, rules: rules}
}

// Extract always returns an intent.
func (e *IntentExtractor) Extract(ctx context.Context, text string, reference time.Time) *ParsedIntent {
	start := time.Now()
	result := e.completer.Complete(ctx, ai.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(text, reference, e.rules),
		Temperature:  promptTemperature,
		MaxTokens:    promptMaxTokens,
	})

	switch result.Failure {
	case ai.FailureNone:
	case ai.FailureNetwork, ai.FailureStatus, ai.FailureTimeout, ai.FailureEmpty, ai.FailureDisabled, ai.FailureMalformed:
		return e.fallback(text, result.Failure)
	default:
		slog.Warn("unknown completion failure", "reason", string(result.Failure))
		return e.fallback(text, result.Failure)
	}

	parsed, err := ParseModelOutput(result.Text)
	if err != nil {
		slog.Warn("failed to parse model output",
			"content", truncate(result.Text),
			"error", err)
		return e.fallback(text, ai.FailureMalformed)
	}

	slog.Debug("intent extracted by model",
		"intent", parsed.Intent,
		"confidence", parsed.Confidence,
		"latency_ms", time.Since(start).Milliseconds())
	return parsed
}

func (e *IntentExtractor) fallback(text string, reason ai.FailureReason) *ParsedIntent {
	parsed := FallbackIntent(text)
	parsed.FallbackReason = reason
	slog.Info("using keyword intent fallback",
		"reason", string(reason),
		"intent", parsed.Intent,
		"input", truncate(text))
	return parsed
}

func truncate(s string) string {
	if len(s) <= timeout.MaxTruncateLength {
		return s
	}
	return s[:timeout.MaxTruncateLength] + "..."
}
