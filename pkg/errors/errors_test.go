package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorFormat(t *testing.T) {
	underlying := stderrors.New("connection refused")
	err := NewTransport("Kapiolani", "fetch listing", underlying)

	assert.Contains(t, err.Error(), "[transport]")
	assert.Contains(t, err.Error(), "Kapiolani")
	assert.Contains(t, err.Error(), "fetch listing")
	assert.Contains(t, err.Error(), "connection refused")

	// Without an underlying error the cause suffix is omitted
	bare := NewValidation("Kapiolani", "missing natural key")
	assert.Contains(t, bare.Error(), "[validation]")
	assert.NotContains(t, bare.Error(), "- ")
}

func TestPipelineErrorUnwrap(t *testing.T) {
	underlying := stderrors.New("disk full")
	err := NewPersistence("Kapiolani", "write checkpoint", underlying)

	assert.True(t, stderrors.Is(err, underlying))

	var pe *PipelineError
	wrapped := fmt.Errorf("save failed: %w", err)
	assert.True(t, stderrors.As(wrapped, &pe))
	assert.Equal(t, ErrorTypePersistence, pe.Type)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewTransport("s", "timeout", nil).IsRetryable())
	assert.True(t, NewMalformed("s", "bad json", nil).IsRetryable())

	assert.False(t, NewValidation("s", "missing key").IsRetryable())
	assert.False(t, NewPersistence("s", "write", nil).IsRetryable())
	assert.False(t, NewDiscovery("s", "listing down", nil).IsRetryable())
	assert.False(t, NewRateLimit("s", time.Minute).IsRetryable())
	assert.False(t, NewConfiguration("bad selector", nil).IsRetryable())
}

func TestIsRetryableClassifiesArbitraryErrors(t *testing.T) {
	// Unknown errors behave like transient transport faults
	assert.True(t, IsRetryable(stderrors.New("i/o timeout")))
	assert.False(t, IsRetryable(nil))

	// Classification survives wrapping
	wrapped := fmt.Errorf("extract: %w", NewValidation("s", "missing key"))
	assert.False(t, IsRetryable(wrapped))

	wrappedTransport := fmt.Errorf("extract: %w", NewTransport("s", "timeout", nil))
	assert.True(t, IsRetryable(wrappedTransport))
}

func TestNewRateLimitMessage(t *testing.T) {
	err := NewRateLimit("Kapiolani", 30*time.Second)
	assert.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.Contains(t, err.Error(), "rate limited for 30s")
}
