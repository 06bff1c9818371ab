package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a response without
// inspecting messages.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindConfiguration         Kind = "configuration"
	KindRateLimited           Kind = "rate_limited"
	KindProviderRateLimited   Kind = "provider_rate_limited"
	KindProviderQuotaExceeded Kind = "provider_quota_exceeded"
	KindEmptyResponse         Kind = "empty_response"
	KindInternal              Kind = "internal"
	KindNoResults             Kind = "no_results"
)

// ErrMissingCredential is returned by provider clients built without an API key.
var ErrMissingCredential = errors.New("provider API key not configured")

// Error is a classified gateway failure. Message is safe to show to callers;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: PublicMessage(kind), Err: err}
}

// RateLimitedError reports a rejection by the local rate limiter.
func RateLimitedError() *Error {
	return newError(KindRateLimited, nil)
}

// ValidationError names the offending request field.
func ValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the generic text returned to clients for a kind.
func PublicMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "Invalid request"
	case KindConfiguration:
		return "AI service configuration error"
	case KindRateLimited:
		return "Rate limit exceeded. Please try again later."
	case KindProviderRateLimited, KindProviderQuotaExceeded:
		return "Service temporarily unavailable. Please try again later."
	case KindEmptyResponse:
		return "No content received from the AI service"
	case KindNoResults:
		return "Unable to find movies matching your preferences. Please try again."
	default:
		return "Internal server error"
	}
}

// ProviderError is the structured error body returned by the completion API.
type ProviderError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d, type %q, code %q): %s", e.StatusCode, e.Type, e.Code, e.Message)
}
