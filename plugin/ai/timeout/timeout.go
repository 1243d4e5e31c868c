// Package timeout defines centralized timeout constants for external calls.
package timeout

import "time"

const (
	// CompletionTimeout bounds a single language model completion.
	CompletionTimeout = 15 * time.Second

	// CalendarTimeout bounds a single calendar backend call.
	CalendarTimeout = 10 * time.Second

	// ShutdownTimeout is how long the HTTP server waits for in-flight requests.
	ShutdownTimeout = 10 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
