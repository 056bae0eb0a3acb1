package pipeline

import (
	"errors"
	"fmt"
)

// Error categories, matched with errors.Is.
var (
	// ErrValidation marks malformed input; nothing was processed.
	ErrValidation = errors.New("validation error")
	// ErrUpstream marks a translation or transcription provider failure.
	ErrUpstream = errors.New("upstream service error")
)

// ValidationError describes why a request was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a provider failure.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Unwrap returns the provider error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
