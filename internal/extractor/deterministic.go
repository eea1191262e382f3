package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/UH-CI/course-text-extraction/internal/catalog"
	"github.com/UH-CI/course-text-extraction/logger"
	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
)

// Selectors contains the CSS selectors locating course structures in a
// rendered catalog page.
type Selectors struct {
	// DepartmentHeader locates the element holding the department name,
	// e.g. "ACCOUNTING (ACC) COURSES".
	DepartmentHeader string
	// DepartmentRegex extracts the department name from the header text.
	DepartmentRegex string
	// CourseBlock locates one block (table, div) per course.
	CourseBlock string
	// CourseHeading locates the element inside a block carrying the
	// "ACC124: Principles of Accounting I" heading.
	CourseHeading string
	// DetailCell locates the detail cells under a block: credits,
	// prerequisites, description.
	DetailCell string
}

// DeterministicConfig configures a deterministic extractor for one source.
type DeterministicConfig struct {
	Source        string
	InstitutionID int
	Selectors     Selectors
}

var (
	// Matches both "ACC124: Principles of Accounting I" and
	// "ACC 124 - Principles of Accounting I" heading shapes.
	courseHeadingRe = regexp.MustCompile(`^([A-Z]+)\s*(\d+[A-Z]*)\s*[:\x{2013}-]?\s*(.*)$`)
	creditsRe       = regexp.MustCompile(`Credits?:\s*(\d+(?:\.\d+)?(?:\s*-\s*\d+(?:\.\d+)?)?|V)`)
)

// Deterministic extracts courses by structure matching over the unit's
// content. It makes no network calls and needs no retries beyond input-shape
// validation.
type Deterministic struct {
	config DeterministicConfig
	deptRe *regexp.Regexp
	log    *logger.Logger
}

// NewDeterministic creates a deterministic extractor.
func NewDeterministic(config DeterministicConfig) (*Deterministic, error) {
	if config.Selectors.CourseBlock == "" {
		return nil, pkgerrors.NewConfiguration("deterministic extractor requires a course block selector", nil)
	}
	var deptRe *regexp.Regexp
	if config.Selectors.DepartmentRegex != "" {
		var err error
		deptRe, err = regexp.Compile(config.Selectors.DepartmentRegex)
		if err != nil {
			return nil, pkgerrors.NewConfiguration("invalid department regex", err)
		}
	}
	return &Deterministic{
		config: config,
		deptRe: deptRe,
		log:    logger.ForExtractor("deterministic"),
	}, nil
}

// Name identifies the strategy.
func (d *Deterministic) Name() string {
	return "deterministic"
}

// Extract parses every course block found in the unit. Blocks missing either
// natural-key component are discarded and logged with the unit identifier.
func (d *Deterministic) Extract(ctx context.Context, unit catalog.Unit, _ []catalog.Unit, _ []catalog.Course, overlap []catalog.Course) ([]catalog.Course, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unit.Content))
	if err != nil {
		return nil, pkgerrors.NewMalformed(d.config.Source, "parse unit content", err)
	}

	department := d.extractDepartment(doc)

	var courses []catalog.Course
	doc.Find(d.config.Selectors.CourseBlock).Each(func(_ int, block *goquery.Selection) {
		course, ok := d.parseBlock(block, department)
		if !ok {
			return
		}
		courses = append(courses, course)
	})

	if len(courses) == 0 {
		d.log.Debug().Str("location", unit.Location).Msg("No courses found in unit")
	}

	return mergeOverlap(courses, overlap), nil
}

// extractDepartment pulls the department name from the page header.
func (d *Deterministic) extractDepartment(doc *goquery.Document) string {
	if d.config.Selectors.DepartmentHeader == "" {
		return ""
	}
	header := strings.TrimSpace(doc.Find(d.config.Selectors.DepartmentHeader).First().Text())
	if header == "" {
		return ""
	}
	if d.deptRe != nil {
		if m := d.deptRe.FindStringSubmatch(header); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	return header
}

// parseBlock parses one course block: heading row first, then detail cells
// split into credits, prerequisite metadata, and description.
func (d *Deterministic) parseBlock(block *goquery.Selection, department string) (catalog.Course, bool) {
	course := catalog.Course{
		Department:    department,
		InstitutionID: d.config.InstitutionID,
	}

	headingSel := d.config.Selectors.CourseHeading
	if headingSel == "" {
		headingSel = "a"
	}
	heading := strings.TrimSpace(block.Find(headingSel).First().Text())
	if m := courseHeadingRe.FindStringSubmatch(heading); m != nil {
		course.Prefix = m[1]
		course.Number = m[2]
		course.Title = strings.TrimSpace(m[3])
	}

	if !course.Valid() {
		d.log.Debug().Str("heading", heading).Msg("Discarding block without a natural key")
		return catalog.Course{}, false
	}

	detailSel := d.config.Selectors.DetailCell
	if detailSel == "" {
		detailSel = "td"
	}

	var descriptionParts, metadataParts []string
	block.Find(detailSel).Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if text == "" || text == heading {
			return
		}
		switch {
		case strings.HasPrefix(text, "Credits:") || strings.HasPrefix(text, "Credit:"):
			if m := creditsRe.FindStringSubmatch(text); m != nil {
				course.Units = m[1]
			}
		case strings.Contains(text, "Prereq:") || strings.Contains(text, "Coreq:") ||
			strings.Contains(text, "Prerequisite") || strings.Contains(text, "Corequisite"):
			metadataParts = append(metadataParts, text)
		default:
			descriptionParts = append(descriptionParts, text)
		}
	})

	course.Description = strings.TrimSpace(strings.Join(descriptionParts, " "))
	course.Metadata = catalog.FlattenMetadata(metadataParts)

	return course, true
}

// mergeOverlap fuses candidates whose key matches an overlap course with the
// previously accepted version, so continuations complete a course instead of
// duplicating it.
func mergeOverlap(candidates []catalog.Course, overlap []catalog.Course) []catalog.Course {
	if len(overlap) == 0 {
		return candidates
	}
	byKey := make(map[string]catalog.Course, len(overlap))
	for _, o := range overlap {
		byKey[o.Key()] = o
	}
	for i := range candidates {
		prior, ok := byKey[candidates[i].Key()]
		if !ok {
			continue
		}
		fused := prior
		fused.MergeFrom(&candidates[i])
		candidates[i] = fused
	}
	return candidates
}
