package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UH-CI/course-text-extraction/internal/extractor"
	"github.com/UH-CI/course-text-extraction/internal/render"
	"github.com/UH-CI/course-text-extraction/internal/source"
	"github.com/UH-CI/course-text-extraction/logger"
	"github.com/UH-CI/course-text-extraction/services/cache"
	"github.com/UH-CI/course-text-extraction/services/checkpoint"
	"github.com/UH-CI/course-text-extraction/services/worker"
)

const listingPage = `
<html><body>
<a href="/subject.php?code=ACC">Accounting</a>
<a href="/subject.php?code=BOT">Botany</a>
<a href="/subject.php?code=ZOO">Zoology</a>
<a href="/about.php">About</a>
</body></html>`

const accSubjectPage = `
<html><body>
<table style="background-color: royalblue;"><tr><td>ACCOUNTING (ACC) COURSES</td></tr></table>
<table style="background-color: lightgray;">
  <tr><td><a href="#">ACC124: Principles of Accounting I</a></td></tr>
  <tr><td>Credits: 3</td></tr>
  <tr><td>Prereq: Qualification for ENG 100.</td></tr>
  <tr><td>An introduction to accounting concepts.</td></tr>
</table>
<table style="background-color: lightgray;">
  <tr><td><a href="#">ACC125: Principles of Accounting II</a></td></tr>
  <tr><td>Credits: 3</td></tr>
  <tr><td>A continuation of ACC 124.</td></tr>
</table>
</body></html>`

const botSubjectPage = `
<html><body>
<table style="background-color: royalblue;"><tr><td>BOTANY (BOT) COURSES</td></tr></table>
</body></html>`

const zooSubjectPage = `
<html><body>
<table style="background-color: royalblue;"><tr><td>ZOOLOGY (ZOO) COURSES</td></tr></table>
<table style="background-color: lightgray;">
  <tr><td><a href="#">ZOO101: Principles of Zoology</a></td></tr>
  <tr><td>Credits: 3</td></tr>
  <tr><td>The biology of animals.</td></tr>
</table>
</body></html>`

// TestEndToEndExtraction runs the full pipeline over a served catalog:
// discovery from a listing page, parallel fetch and deterministic extraction,
// deduplication, and a completed checkpoint artifact.
func TestEndToEndExtraction(t *testing.T) {
	logger.Init()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path + "?" + r.URL.RawQuery {
		case "/courses.php?":
			w.Write([]byte(listingPage))
		case "/subject.php?code=ACC":
			w.Write([]byte(accSubjectPage))
		case "/subject.php?code=BOT":
			w.Write([]byte(botSubjectPage))
		case "/subject.php?code=ZOO":
			w.Write([]byte(zooSubjectPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := &source.Source{
		Name:          "Kapiolani",
		InstitutionID: 141574,
		ListingURLs:   []string{server.URL + "/courses.php"},
		LinkPrefix:    server.URL + "/subject.php?code=",
		Selectors: extractor.Selectors{
			DepartmentHeader: `table[style*="royalblue"] td`,
			DepartmentRegex:  `^(.+?)\s*\([A-Z]+\)\s*COURSES?`,
			CourseBlock:      `table[style*="lightgray"]`,
			CourseHeading:    "tr a",
			DetailCell:       "tr td",
		},
	}

	ext, err := extractor.NewDeterministic(extractor.DeterministicConfig{
		Source:        src.Name,
		InstitutionID: src.InstitutionID,
		Selectors:     src.Selectors,
	})
	require.NoError(t, err)

	cacheSvc := cache.NewMemoryService()
	factory := func() (render.Renderer, error) {
		return render.NewHTTPRenderer(src.Name, cacheSvc, time.Minute, 10*time.Second), nil
	}

	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "courses_extracted.json"))

	pipeline := worker.NewPipeline(src, ext, factory, store, nil, logger.NewAdapter(src.Name), worker.Options{
		Workers:            2,
		CheckpointInterval: 2,
		ContextUnits:       3,
		ContextRecords:     5,
		OverlapCount:       2,
	})

	require.NoError(t, pipeline.Run(context.Background()))

	// Three subject pages yield 2, 0, and 1 courses
	results := pipeline.Results()
	require.Len(t, results, 3)

	keys := map[string]bool{}
	for _, c := range results {
		keys[c.Key()] = true
		assert.Equal(t, 141574, c.InstitutionID)
	}
	assert.True(t, keys["ACC-124"])
	assert.True(t, keys["ACC-125"])
	assert.True(t, keys["ZOO-101"])

	artifact, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, checkpoint.StatusComplete, artifact.Metadata.Status)
	assert.Equal(t, 3, artifact.Metadata.TotalUnits)
	assert.Equal(t, 3, artifact.Metadata.UnitsProcessed)
	assert.Equal(t, 3, artifact.Metadata.RecordCount)
	assert.Equal(t, "deterministic", artifact.Metadata.Extractor)
}

// TestEndToEndResume interrupts a run and verifies a second run picks the
// checkpoint up instead of duplicating records.
func TestEndToEndResume(t *testing.T) {
	logger.Init()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.RawQuery == "code=ACC" {
			w.Write([]byte(accSubjectPage))
			return
		}
		w.Write([]byte(`<html><body><a href="/subject.php?code=ACC">Accounting</a></body></html>`))
	}))
	defer server.Close()

	src := &source.Source{
		Name:          "Kapiolani",
		InstitutionID: 141574,
		ListingURLs:   []string{server.URL + "/courses.php"},
		LinkPrefix:    server.URL + "/subject.php?code=",
		Selectors: extractor.Selectors{
			CourseBlock:   `table[style*="lightgray"]`,
			CourseHeading: "tr a",
			DetailCell:    "tr td",
		},
	}

	ext, err := extractor.NewDeterministic(extractor.DeterministicConfig{
		Source:        src.Name,
		InstitutionID: src.InstitutionID,
		Selectors:     src.Selectors,
	})
	require.NoError(t, err)

	cacheSvc := cache.NewMemoryService()
	factory := func() (render.Renderer, error) {
		return render.NewHTTPRenderer(src.Name, cacheSvc, time.Minute, 10*time.Second), nil
	}

	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "courses_extracted.json"))

	first := worker.NewPipeline(src, ext, factory, store, nil, logger.NewAdapter(src.Name), worker.Options{Workers: 1, CheckpointInterval: 1})
	require.NoError(t, first.Run(context.Background()))
	require.Len(t, first.Results(), 2)

	// A second run seeded from the artifact rejects everything as duplicate
	artifact, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, artifact)

	second := worker.NewPipeline(src, ext, factory, store, nil, logger.NewAdapter(src.Name), worker.Options{Workers: 1, CheckpointInterval: 1})
	second.Resume(artifact)
	require.NoError(t, second.Run(context.Background()))

	assert.Len(t, second.Results(), 2)
}
