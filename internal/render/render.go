// Package render fetches one source location and returns its rendered
// content. The pipeline depends only on the Renderer contract; the backing
// engine (plain HTTP or a headless browser) is deployment configuration.
package render

import (
	"context"
)

// Renderer turns a location into rendered page content. A Renderer instance
// is owned by exactly one worker; implementations are not required to be
// safe for concurrent use.
type Renderer interface {
	// Open fetches and renders the given location, bounded by the
	// renderer's configured timeout.
	Open(ctx context.Context, location string) (string, error)

	// Close releases the renderer's session resources.
	Close() error
}

// Factory builds one Renderer per worker so no session is ever shared
// across workers.
type Factory func() (Renderer, error)
