package ai

import "context"

// FailureReason names why a completion produced no usable text.
// The zero value means the completion succeeded.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureNetwork   FailureReason = "network"
	FailureStatus    FailureReason = "status"
	FailureTimeout   FailureReason = "timeout"
	FailureEmpty     FailureReason = "empty"
	FailureDisabled  FailureReason = "disabled"
	FailureMalformed FailureReason = "malformed"
)

// CompletionRequest is a single-turn prompt for the language model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

// CompletionResult is the outcome of a completion. Exactly one of Text or
// Failure is meaningful: Failure is FailureNone when Text holds the reply.
type CompletionResult struct {
	Text    string
	Failure FailureReason
	// Err keeps the underlying error for logging. It is never shown to users.
	Err error
}

// OK reports whether the completion returned text.
func (r CompletionResult) OK() bool {
	return r.Failure == FailureNone
}

// Failed builds a failed result.
func Failed(reason FailureReason, err error) CompletionResult {
	return CompletionResult{Failure: reason, Err: err}
}

// Completer sends one prompt to a language model.
// Implementations never panic and never return a transport error directly:
// every failure is classified into a FailureReason.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) CompletionResult
}

// DisabledCompleter is used when no model is configured.
type DisabledCompleter struct{}

func (DisabledCompleter) Complete(context.Context, CompletionRequest) CompletionResult {
	return Failed(FailureDisabled, nil)
}
