package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid session configuration
	ErrCatTimeout    ErrorCategory = "timeout"    // Voice call exceeded its deadline
	ErrCatProvider   ErrorCategory = "provider"   // Remote endpoint rejected the request
	ErrCatTransient  ErrorCategory = "transient"  // Network/5xx-class, retryable
	ErrCatQuota      ErrorCategory = "quota"      // Remote cannot honor the token ceiling
	ErrCatBudget     ErrorCategory = "budget"     // Session budget exhausted
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Predefined error codes.
const (
	CodeTimeout             = "TIMEOUT"
	CodeProviderRejected    = "PROVIDER_REJECTED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeResourceExhausted   = "RESOURCE_EXHAUSTED"
	CodeInvalidConfig       = "INVALID_CONFIGURATION"
	CodeNoVoices            = "NO_VOICES"
	CodeAllVoicesFailed     = "ALL_VOICES_FAILED"
	CodeEmptyPrompt         = "EMPTY_PROMPT"
)

// ErrTimeout creates a timeout error. Not retryable at the voice level;
// the per-call timeout is the hard cancellation mechanism.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      CodeTimeout,
		Message:   message,
		Retryable: false,
	}
}

// ErrProviderRejected creates an error for non-retryable endpoint rejections.
func ErrProviderRejected(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatProvider,
		Code:      CodeProviderRejected,
		Message:   message,
		Retryable: false,
	}
}

// ErrProviderUnavailable creates a transient error (network, 5xx-class).
func ErrProviderUnavailable(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransient,
		Code:      CodeProviderUnavailable,
		Message:   message,
		Retryable: true,
	}
}

// ErrQuotaExceeded creates an error for remote token-ceiling refusals.
func ErrQuotaExceeded(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatQuota,
		Code:      CodeQuotaExceeded,
		Message:   message,
		Retryable: false,
	}
}

// ErrResourceExhausted creates the session-level error raised only when the
// budget runs out before any usable draft exists.
func ErrResourceExhausted(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatBudget,
		Code:      CodeResourceExhausted,
		Message:   message,
		Retryable: false,
	}
}

// ErrInvalidConfiguration creates a session setup error.
func ErrInvalidConfiguration(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrAllVoicesFailed creates the error for total voice exhaustion.
func ErrAllVoicesFailed(phase Phase) *DomainError {
	return &DomainError{
		Category:  ErrCatInternal,
		Code:      CodeAllVoicesFailed,
		Message:   fmt.Sprintf("no viable voices remain in phase %s", phase),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code string) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code == code
	}
	return false
}
