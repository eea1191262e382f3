// Package extractor converts one unit of rendered source content into zero
// or more candidate courses. Two strategies satisfy the same contract: a
// deterministic structure-matching parser and an AI-assisted parser that
// delegates to an external text-generation service.
package extractor

import (
	"context"

	"github.com/UH-CI/course-text-extraction/internal/catalog"
)

// Extractor extracts candidate courses from one source unit.
//
// contextUnits and contextCourses are consult-only disambiguation context
// (recent units and recently accepted courses). overlap is the handful of
// most recently accepted courses that may continue onto this unit: a
// candidate matching an overlap key is returned as the completed version of
// that course, never as a second record.
type Extractor interface {
	Extract(ctx context.Context, unit catalog.Unit, contextUnits []catalog.Unit, contextCourses []catalog.Course, overlap []catalog.Course) ([]catalog.Course, error)

	// Name identifies the strategy for logging and checkpoint metadata.
	Name() string
}
