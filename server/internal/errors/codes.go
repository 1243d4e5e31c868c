package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of engine failure.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeCalendarUnavailable indicates the calendar backend failed or timed out.
	ErrCodeCalendarUnavailable ErrorCode = "CALENDAR_UNAVAILABLE"
	// ErrCodeBookingFailed indicates the event could not be written.
	ErrCodeBookingFailed ErrorCode = "BOOKING_FAILED"
	// ErrCodeBookingConflict indicates the window was taken between check and write.
	ErrCodeBookingConflict ErrorCode = "BOOKING_CONFLICT"
	// ErrCodeInternal indicates an unexpected failure, including recovered panics.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// EngineError is a coded error raised inside the booking pipeline.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *EngineError {
	return &EngineError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// CalendarUnavailable creates a calendar unavailable error.
func CalendarUnavailable(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeCalendarUnavailable, Message: msg, Cause: cause}
}

// BookingFailed creates a booking failed error.
func BookingFailed(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeBookingFailed, Message: msg, Cause: cause}
}

// BookingConflict creates a booking conflict error.
func BookingConflict(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeBookingConflict, Message: msg, Cause: cause}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, has the given code.
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an EngineError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return defaultCode
}
