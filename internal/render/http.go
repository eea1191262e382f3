package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/UH-CI/course-text-extraction/helpers"
	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
	"github.com/UH-CI/course-text-extraction/services/cache"
)

// HTTPRenderer fetches locations over plain HTTP with browser-like headers.
// When a source rate-limits us, the block is remembered in the cache service
// so sibling fetches back off for the configured window.
type HTTPRenderer struct {
	Source    string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Timeout   time.Duration
}

// NewHTTPRenderer creates an HTTP renderer for one source.
func NewHTTPRenderer(source string, cacheSvc cache.CacheService, blockTime, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		Source:    source,
		CacheKey:  strings.ToLower(source) + "_rate_limited",
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
		Timeout:   timeout,
	}
}

type fetchResult struct {
	body io.Reader
	err  error
}

// Open fetches the location, honoring an active rate-limit block and the
// configured timeout.
func (r *HTTPRenderer) Open(ctx context.Context, location string) (string, error) {
	if r.CacheSvc != nil && r.CacheKey != "" {
		if _, err := r.CacheSvc.Get(r.CacheKey); err == nil {
			return "", pkgerrors.NewRateLimit(r.Source, r.BlockTime)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	resultCh := make(chan fetchResult, 1)
	go func() {
		body, err := helpers.FetchWithRandomHeaders(location)
		resultCh <- fetchResult{body: body, err: err}
	}()

	var result fetchResult
	select {
	case <-ctx.Done():
		return "", pkgerrors.NewTransport(r.Source, fmt.Sprintf("fetch %s timed out", location), ctx.Err())
	case result = <-resultCh:
	}

	if result.err != nil {
		if errors.Is(result.err, helpers.ErrRateLimited) {
			if r.CacheSvc != nil && r.CacheKey != "" {
				r.CacheSvc.Set(r.CacheKey, []byte(fmt.Sprintf("%d", int(r.BlockTime.Seconds()))), r.BlockTime)
			}
			return "", pkgerrors.NewRateLimit(r.Source, r.BlockTime)
		}
		return "", pkgerrors.NewTransport(r.Source, fmt.Sprintf("fetch %s", location), result.err)
	}

	content, err := io.ReadAll(result.body)
	if err != nil {
		return "", pkgerrors.NewTransport(r.Source, fmt.Sprintf("read %s", location), err)
	}
	return string(content), nil
}

// Close is a no-op; the HTTP client holds no per-session resources.
func (r *HTTPRenderer) Close() error {
	return nil
}
