package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UH-CI/course-text-extraction/internal/catalog"
	"github.com/UH-CI/course-text-extraction/internal/llm"
	"github.com/UH-CI/course-text-extraction/logger"
	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
	"github.com/UH-CI/course-text-extraction/pkg/retry"
)

// AIConfig configures the AI-assisted extractor for one source.
type AIConfig struct {
	Source        string
	InstitutionID int
	// Repair re-invokes the service once when a parsed result still
	// contains placeholder field values.
	Repair bool
}

// AI extracts courses by delegating to an external text-generation service
// and parsing its structured response. Malformed output and transport errors
// are retried under the injected policy; exhausting it yields an empty
// result, a soft per-unit failure.
type AI struct {
	config AIConfig
	client llm.Client
	policy retry.Policy
	log    *logger.Logger
}

// NewAI creates an AI-assisted extractor.
func NewAI(config AIConfig, client llm.Client, policy retry.Policy) *AI {
	return &AI{
		config: config,
		client: client,
		policy: policy,
		log:    logger.ForExtractor("ai"),
	}
}

// Name identifies the strategy.
func (a *AI) Name() string {
	return "ai"
}

// Extract prompts the service with the unit plus context and parses the
// returned JSON array of courses.
func (a *AI) Extract(ctx context.Context, unit catalog.Unit, contextUnits []catalog.Unit, contextCourses []catalog.Course, overlap []catalog.Course) ([]catalog.Course, error) {
	prompt := buildPrompt(unit, contextUnits, contextCourses, overlap, a.config.InstitutionID)

	var courses []catalog.Course
	err := a.policy.Do(ctx, func() error {
		response, err := a.client.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseCourses(response)
		if err != nil {
			return pkgerrors.NewMalformed(a.config.Source,
				fmt.Sprintf("unparseable response for %s", unit.Location), err)
		}
		courses = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	courses = a.discardInvalid(courses, unit)

	if a.config.Repair && needsRepair(courses) {
		courses = a.repair(ctx, courses, contextUnits, contextCourses)
	}

	return mergeOverlap(courses, overlap), nil
}

// discardInvalid drops candidates missing a natural-key component. These are
// validation errors: logged with the unit identifier, never retried.
func (a *AI) discardInvalid(courses []catalog.Course, unit catalog.Unit) []catalog.Course {
	kept := courses[:0]
	for _, c := range courses {
		if !c.Valid() {
			verr := pkgerrors.NewValidation(a.config.Source,
				fmt.Sprintf("candidate %q missing a natural key in %s", c.Title, unit.Location))
			a.log.Warn().Err(verr).Msg("Discarding candidate")
			continue
		}
		if c.InstitutionID == 0 {
			c.InstitutionID = a.config.InstitutionID
		}
		kept = append(kept, c)
	}
	return kept
}

// repair asks the service for corrected values once. If the repair response
// does not parse, the original imperfect result is kept as-is.
func (a *AI) repair(ctx context.Context, courses []catalog.Course, contextUnits []catalog.Unit, contextCourses []catalog.Course) []catalog.Course {
	a.log.Debug().Int("courses", len(courses)).Msg("Repairing placeholder field values")

	response, err := a.client.Generate(ctx, buildRepairPrompt(courses, contextUnits, contextCourses))
	if err != nil {
		a.log.Warn().Err(err).Msg("Repair pass failed, keeping original result")
		return courses
	}

	fixed, err := parseCourses(response)
	if err != nil {
		a.log.Warn().Err(err).Msg("Repair response unparseable, keeping original result")
		return courses
	}

	// A repair must not lose or invent records: accept it only when it
	// returns the same keys.
	if len(fixed) != len(courses) {
		a.log.Warn().Msg("Repair changed record count, keeping original result")
		return courses
	}
	byKey := make(map[string]bool, len(courses))
	for _, c := range courses {
		byKey[c.Key()] = true
	}
	for _, c := range fixed {
		if !byKey[c.Key()] {
			a.log.Warn().Str("key", c.Key()).Msg("Repair introduced a new key, keeping original result")
			return courses
		}
	}
	return fixed
}

// needsRepair reports whether any course still carries a placeholder value.
func needsRepair(courses []catalog.Course) bool {
	for i := range courses {
		if courses[i].NeedsRepair() {
			return true
		}
	}
	return false
}

// parseCourses parses the structured response: a JSON array of course
// objects, tolerating a single bare object.
func parseCourses(response string) ([]catalog.Course, error) {
	cleaned := stripFences(response)

	var courses []catalog.Course
	if err := json.Unmarshal([]byte(cleaned), &courses); err == nil {
		return courses, nil
	}

	var single catalog.Course
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return nil, err
	}
	return []catalog.Course{single}, nil
}
