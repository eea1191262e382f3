package source

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/UH-CI/course-text-extraction/helpers"
	"github.com/UH-CI/course-text-extraction/internal/render"
	"github.com/UH-CI/course-text-extraction/logger"
	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
)

// Frontier tracks discovered locations and permanently excludes anything
// already visited, across repeated discovery passes. Safe for concurrent use.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]bool
	log     *logger.Logger
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		visited: make(map[string]bool),
		log:     logger.ForPipeline(),
	}
}

// Mark records a location as visited. It returns true when the location was
// new, false when it had been seen before.
func (f *Frontier) Mark(location string) bool {
	key := helpers.NormalizeURL(location)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visited[key] {
		return false
	}
	f.visited[key] = true
	return true
}

// Visited reports whether a location was already marked.
func (f *Frontier) Visited(location string) bool {
	key := helpers.NormalizeURL(location)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited[key]
}

// VisitedCount returns the number of marked locations.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Discover enumerates the source's unit locations. Static locations are
// returned directly; otherwise every listing page is rendered and its links
// matching the source's prefix predicate are collected in document order,
// deduplicated against everything already visited. A failed listing fetch is
// logged and skipped; it never aborts the run.
func (f *Frontier) Discover(ctx context.Context, r render.Renderer, src *Source) []string {
	if len(src.StaticLocations) > 0 {
		// Static locations are pre-known unit addresses (often page
		// fragments of one document), so they dedupe on the exact string.
		seen := make(map[string]bool, len(src.StaticLocations))
		var out []string
		for _, loc := range src.StaticLocations {
			if loc == "" || seen[loc] {
				continue
			}
			seen[loc] = true
			out = append(out, loc)
		}
		return out
	}

	var locations []string
	for _, listing := range src.Listings() {
		if err := ctx.Err(); err != nil {
			break
		}

		content, err := r.Open(ctx, listing)
		if err != nil {
			f.log.Warn().
				Str("source", src.Name).
				Str("listing", listing).
				Err(pkgerrors.NewDiscovery(src.Name, "listing fetch failed", err)).
				Msg("Skipping unreachable listing page")
			continue
		}

		found := extractLinks(content, listing, src.LinkPrefix)
		f.log.Debug().
			Str("source", src.Name).
			Str("listing", listing).
			Int("links", len(found)).
			Msg("Discovered listing links")
		locations = append(locations, found...)
	}

	return f.dedupe(locations)
}

// dedupe drops already-visited locations and in-pass repeats, preserving
// first-seen order. Surviving locations are NOT marked here; the scheduler
// marks them as it dispatches, so a cancelled run can revisit them.
func (f *Frontier) dedupe(locations []string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]bool, len(locations))
	var out []string
	for _, loc := range locations {
		key := helpers.NormalizeURL(loc)
		if key == "" || f.visited[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, loc)
	}
	return out
}

// extractLinks collects hrefs under the listing that resolve to the prefix.
func extractLinks(content, listingURL, prefix string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(listingURL)

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if prefix == "" || strings.HasPrefix(href, prefix) {
			links = append(links, href)
		}
	})
	return links
}
