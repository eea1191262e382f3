package source

import (
	"github.com/UH-CI/course-text-extraction/config"
	"github.com/UH-CI/course-text-extraction/internal/extractor"
)

// IPEDS institution identifiers for the configured campuses.
const (
	KapiolaniIPEDS = 141574
	ManoaIPEDS     = 141574
	HiloIPEDS      = 141565
)

// CreateSources builds the catalog sources for this deployment from
// configuration. Selectors are per-campus: each catalog renders courses in
// its own table or block structure.
func CreateSources(cfg *config.Config) []*Source {
	return []*Source{
		{
			// Kapiolani: one listing page linking to per-subject pages,
			// each holding many lightgray course tables.
			Name:          "Kapiolani",
			InstitutionID: KapiolaniIPEDS,
			ListingURLs:   []string{cfg.KapiolaniURL},
			LinkPrefix:    "https://www.papakuhikuhi.com/subject.php?code=",
			Selectors: extractor.Selectors{
				DepartmentHeader: `table[style*="royalblue"] td`,
				DepartmentRegex:  `^(.+?)\s*\([A-Z]+\)\s*COURSES?`,
				CourseBlock:      `table[style*="lightgray"]`,
				CourseHeading:    "tr a",
				DetailCell:       "tr td",
			},
		},
		{
			// Manoa: paginated catalog listing linking to one preview page
			// per course. JavaScript-rendered, so it goes through Chrome.
			Name:          "Manoa",
			InstitutionID: ManoaIPEDS,
			PageTemplate:  cfg.ManoaURLTemplate,
			StartPage:     cfg.ManoaStartPage,
			EndPage:       cfg.ManoaEndPage,
			LinkPrefix:    cfg.ManoaCoursePrefix,
			UseChrome:     true,
			Selectors: extractor.Selectors{
				CourseBlock:   "td.block_content",
				CourseHeading: "h1#course_preview_title",
				DetailCell:    "td",
			},
		},
		{
			// Hilo: department listing feeding nested department pages.
			Name:          "Hilo",
			InstitutionID: HiloIPEDS,
			ListingURLs:   []string{cfg.HiloCatalogURL},
			LinkPrefix:    cfg.HiloCatalogURL + "/",
			Selectors: extractor.Selectors{
				DepartmentHeader: "h1",
				DepartmentRegex:  cfg.HiloDepartmentRegex,
				CourseBlock:      "div.course",
				CourseHeading:    ".course-title",
				DetailCell:       "p",
			},
		},
	}
}
