package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransport represents network/render/service transport errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeMalformed represents unparseable structured responses
	ErrorTypeMalformed ErrorType = "malformed"
	// ErrorTypeValidation represents candidate records missing required fields
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents checkpoint write errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeDiscovery represents unreachable listing pages
	ErrorTypeDiscovery ErrorType = "discovery"
	// ErrorTypeRateLimit represents rate limiting by a source
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeConfiguration represents unrecoverable startup configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error attributed to one source or unit
type PipelineError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth another attempt. Transport
// and malformed-output errors are retried identically; validation errors
// discard the candidate instead.
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTransport, ErrorTypeMalformed:
		return true
	default:
		return false
	}
}

// IsRetryable classifies an arbitrary error. Unknown errors are treated as
// transport failures so that external-call timeouts behave like any other
// transient fault.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return err != nil
}

// New creates a new PipelineError
func New(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewTransport creates a new transport error
func NewTransport(source, message string, err error) *PipelineError {
	return New(ErrorTypeTransport, source, message, err)
}

// NewMalformed creates a new malformed-output error
func NewMalformed(source, message string, err error) *PipelineError {
	return New(ErrorTypeMalformed, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *PipelineError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(source, message string, err error) *PipelineError {
	return New(ErrorTypePersistence, source, message, err)
}

// NewDiscovery creates a new discovery error
func NewDiscovery(source, message string, err error) *PipelineError {
	return New(ErrorTypeDiscovery, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}
