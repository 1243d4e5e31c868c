package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hrygo/slotwise/plugin/ai/timeout"
)

// GeminiCompleter is a Completer backed by Google's Gemini models.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

// NewGeminiCompleter creates a Gemini client for the given model.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiCompleter, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GeminiCompleter{
		client:    client,
		modelName: model,
		timeout:   timeout.CompletionTimeout,
	}, nil
}

// Complete generates one reply for the prompt.
func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) CompletionResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		reason := classifyGeminiError(ctx, err)
		slog.Warn("gemini completion failed",
			"model", g.modelName,
			"reason", string(reason),
			"error", err)
		return Failed(reason, err)
	}

	text := geminiText(resp)
	if strings.TrimSpace(text) == "" {
		return Failed(FailureEmpty, nil)
	}
	return CompletionResult{Text: text}
}

// Close releases the underlying client.
func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String()
}

func classifyGeminiError(ctx context.Context, err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return FailureStatus
	}
	return FailureNetwork
}
