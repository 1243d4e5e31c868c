package ai

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/slotwise/plugin/ai/timeout"
)

// ProviderConfig holds the OpenAI-compatible provider configuration.
// Groq, OpenAI and DeepSeek all speak this protocol.
type ProviderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
	// RetryWait is the base of the exponential backoff between attempts.
	RetryWait time.Duration
}

// Provider is a Completer backed by an OpenAI-compatible chat endpoint.
type Provider struct {
	client *openai.Client
	config ProviderConfig
}

// NewProvider creates a new OpenAI-compatible provider.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeout.CompletionTimeout
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.Model == "" {
		cfg.Model = "llama3-8b-8192"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Complete performs one chat completion within the configured deadline.
func (p *Provider) Complete(ctx context.Context, req CompletionRequest) CompletionResult {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var text string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			text = ""
			return nil
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		reason := classifyError(ctx, err)
		slog.Warn("LLM completion failed",
			"model", p.config.Model,
			"reason", string(reason),
			"error", err)
		return Failed(reason, err)
	}
	if strings.TrimSpace(text) == "" {
		return Failed(FailureEmpty, nil)
	}
	return CompletionResult{Text: text}
}

// doWithRetry executes fn with exponential backoff. Only transient
// failures are retried.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(ctx, err) || attempt == p.config.MaxRetries-1 {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * p.config.RetryWait
		slog.Debug("LLM request failed, retrying",
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func isRetryable(ctx context.Context, err error) bool {
	switch classifyError(ctx, err) {
	case FailureNetwork:
		return true
	case FailureStatus:
		return statusCode(err) >= http.StatusInternalServerError || statusCode(err) == http.StatusTooManyRequests
	default:
		return false
	}
}

// classifyError maps a client error onto a FailureReason.
func classifyError(ctx context.Context, err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if statusCode(err) != 0 {
		return FailureStatus
	}
	return FailureNetwork
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
