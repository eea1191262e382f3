package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UH-CI/course-text-extraction/config"
)

// fakeRenderer serves canned pages by location.
type fakeRenderer struct {
	pages map[string]string
	errs  map[string]error
	opens []string
}

func (f *fakeRenderer) Open(_ context.Context, location string) (string, error) {
	f.opens = append(f.opens, location)
	if err, ok := f.errs[location]; ok {
		return "", err
	}
	return f.pages[location], nil
}

func (f *fakeRenderer) Close() error { return nil }

func TestFrontierMark(t *testing.T) {
	f := NewFrontier()

	assert.True(t, f.Mark("https://example.edu/subject.php?code=ACC"))
	assert.False(t, f.Mark("https://example.edu/subject.php?code=ACC"))
	// Cosmetic variants normalize to the same key
	assert.False(t, f.Mark("https://example.edu/subject.php?code=ACC#top"))

	assert.True(t, f.Visited("https://example.edu/subject.php?code=ACC"))
	assert.Equal(t, 1, f.VisitedCount())
}

func TestDiscoverStaticLocations(t *testing.T) {
	f := NewFrontier()

	src := &Source{
		Name: "Honolulu",
		StaticLocations: []string{
			"catalog.pdf#page=1",
			"catalog.pdf#page=2",
			"catalog.pdf#page=2",
		},
	}

	rend := &fakeRenderer{}
	locations := f.Discover(context.Background(), rend, src)

	// Static lists bypass rendering entirely; page fragments stay distinct
	// and exact repeats are dropped
	assert.Equal(t, []string{"catalog.pdf#page=1", "catalog.pdf#page=2"}, locations)
	assert.Empty(t, rend.opens)
}

func TestDiscoverExtractsPrefixedLinks(t *testing.T) {
	f := NewFrontier()

	listing := "https://www.papakuhikuhi.com/courses.php"
	page := `
<html><body>
<a href="subject.php?code=ACC">Accounting</a>
<a href="subject.php?code=BIO">Biology</a>
<a href="https://other.example.com/elsewhere">External</a>
<a href="courses.php">Self link</a>
</body></html>`

	src := &Source{
		Name:        "Kapiolani",
		ListingURLs: []string{listing},
		LinkPrefix:  "https://www.papakuhikuhi.com/subject.php?code=",
	}

	locations := f.Discover(context.Background(), &fakeRenderer{pages: map[string]string{listing: page}}, src)

	require.Len(t, locations, 2)
	// Relative hrefs resolve against the listing URL, in document order
	assert.Equal(t, "https://www.papakuhikuhi.com/subject.php?code=ACC", locations[0])
	assert.Equal(t, "https://www.papakuhikuhi.com/subject.php?code=BIO", locations[1])
}

func TestDiscoverSkipsFailedListings(t *testing.T) {
	f := NewFrontier()

	src := &Source{
		Name:        "Kapiolani",
		ListingURLs: []string{"https://a.example.edu/list", "https://b.example.edu/list"},
		LinkPrefix:  "https://b.example.edu/course",
	}

	rend := &fakeRenderer{
		pages: map[string]string{
			"https://b.example.edu/list": `<a href="https://b.example.edu/course/1">one</a>`,
		},
		errs: map[string]error{
			"https://a.example.edu/list": errors.New("connection refused"),
		},
	}

	locations := f.Discover(context.Background(), rend, src)

	// The unreachable listing is skipped, not fatal
	require.Len(t, locations, 1)
	assert.Equal(t, "https://b.example.edu/course/1", locations[0])
	assert.Len(t, rend.opens, 2)
}

func TestDiscoverDropsVisitedAndRepeats(t *testing.T) {
	f := NewFrontier()
	f.Mark("https://example.edu/course/1")

	listing := "https://example.edu/list"
	page := `
<a href="https://example.edu/course/1">already visited</a>
<a href="https://example.edu/course/2">new</a>
<a href="https://example.edu/course/2">repeat</a>
<a href="https://example.edu/course/3">new</a>`

	src := &Source{
		Name:        "Hilo",
		ListingURLs: []string{listing},
		LinkPrefix:  "https://example.edu/course",
	}

	locations := f.Discover(context.Background(), &fakeRenderer{pages: map[string]string{listing: page}}, src)

	assert.Equal(t, []string{
		"https://example.edu/course/2",
		"https://example.edu/course/3",
	}, locations)

	// Discovery does not mark survivors; the scheduler marks at dispatch
	assert.False(t, f.Visited("https://example.edu/course/2"))
}

func TestListingsPagination(t *testing.T) {
	src := &Source{
		Name:         "Manoa",
		ListingURLs:  []string{"https://example.edu/extra"},
		PageTemplate: "https://example.edu/content.php?cpage={page}",
		StartPage:    1,
		EndPage:      3,
	}

	listings := src.Listings()
	assert.Equal(t, []string{
		"https://example.edu/extra",
		"https://example.edu/content.php?cpage=1",
		"https://example.edu/content.php?cpage=2",
		"https://example.edu/content.php?cpage=3",
	}, listings)
}

func TestCreateSources(t *testing.T) {
	sources := CreateSources(config.LoadConfig())
	require.Len(t, sources, 3)

	byName := map[string]*Source{}
	for _, s := range sources {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "Kapiolani")
	require.Contains(t, byName, "Manoa")
	require.Contains(t, byName, "Hilo")

	assert.False(t, byName["Kapiolani"].UseChrome)
	assert.True(t, byName["Manoa"].UseChrome)
	assert.NotEmpty(t, byName["Kapiolani"].Selectors.CourseBlock)
	assert.Greater(t, byName["Manoa"].EndPage, byName["Manoa"].StartPage)
}
