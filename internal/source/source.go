// Package source describes the catalog sources to crawl and discovers the
// set of locations to visit for each one.
package source

import (
	"strconv"
	"strings"

	"github.com/UH-CI/course-text-extraction/internal/extractor"
)

// Source describes one catalog: where its listing pages live, how to
// recognize links to course pages, and how to parse them deterministically.
type Source struct {
	Name          string
	InstitutionID int

	// ListingURLs are fixed listing pages to discover course links from.
	ListingURLs []string
	// PageTemplate generates paginated listing URLs; "{page}" is replaced
	// by every page number from StartPage to EndPage inclusive.
	PageTemplate string
	StartPage    int
	EndPage      int

	// LinkPrefix is the predicate for course-page links on a listing: only
	// hrefs resolving to this prefix enter the frontier.
	LinkPrefix string

	// StaticLocations bypass discovery entirely (pre-known unit lists).
	StaticLocations []string

	// Selectors drive the deterministic extractor for this source.
	Selectors extractor.Selectors

	// UseChrome selects the headless browser renderer for this source.
	UseChrome bool
}

// Listings expands the source's listing locations.
func (s *Source) Listings() []string {
	listings := make([]string, 0, len(s.ListingURLs))
	listings = append(listings, s.ListingURLs...)
	if s.PageTemplate != "" {
		for page := s.StartPage; page <= s.EndPage; page++ {
			listings = append(listings, strings.ReplaceAll(s.PageTemplate, "{page}", strconv.Itoa(page)))
		}
	}
	return listings
}
