package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/UH-CI/course-text-extraction/internal/catalog"
)

const contextUnitPreview = 500

// buildPrompt serializes the unit plus its disambiguation context into the
// extraction instruction sent to the text-generation service.
func buildPrompt(unit catalog.Unit, contextUnits []catalog.Unit, contextCourses []catalog.Course, overlap []catalog.Course, institutionID int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert course catalog parser. Extract ALL course information from the following page text.

IMPORTANT INSTRUCTIONS:
1. Extract EVERY course found on this page
2. Each course should have: course_prefix, course_number, course_title, course_desc, num_units, dept_name
3. Set inst_ipeds to %d for all courses
4. Include metadata like prerequisites, lecture hours, lab hours in the metadata field as a single semicolon-joined string
5. If any field is unclear, use context from previous pages and courses
6. OVERLAP HANDLING: If you see courses from the overlap section that continue or are completed on this page, UPDATE them with complete information rather than creating duplicates
7. DO NOT create duplicate courses - if a course appears in overlap, only include it if you're updating/completing it
8. Return ONLY valid JSON array of course objects
9. If no courses found, return empty array []

PAGE TEXT TO ANALYZE:
%s
`, institutionID, unit.Content)

	if len(contextUnits) > 0 {
		b.WriteString("\nCONTEXT FROM PREVIOUS PAGES:\n")
		for i, u := range contextUnits {
			preview := u.Content
			if len(preview) > contextUnitPreview {
				preview = preview[:contextUnitPreview] + "..."
			}
			fmt.Fprintf(&b, "Page %d: %s\n", i+1, preview)
		}
	}

	if len(contextCourses) > 0 {
		b.WriteString("\nRECENTLY EXTRACTED COURSES (for reference):\n")
		for _, c := range contextCourses {
			fmt.Fprintf(&b, "- %s %s: %s\n", c.Prefix, c.Number, c.Title)
		}
	}

	if len(overlap) > 0 {
		b.WriteString("\nOVERLAP COURSES FROM PREVIOUS PAGE (check for continuation/completion):\n")
		for _, c := range overlap {
			desc := c.Description
			if len(desc) > 200 {
				desc = desc[:200] + "..."
			}
			fmt.Fprintf(&b, "- %s %s: %s\n  Description: %s\n", c.Prefix, c.Number, c.Title, desc)
		}
	}

	b.WriteString("\nReturn JSON array of courses:")
	return b.String()
}

// buildRepairPrompt asks the service to fill the remaining placeholder
// values of an already-parsed result, using the same context.
func buildRepairPrompt(courses []catalog.Course, contextUnits []catalog.Unit, contextCourses []catalog.Course) string {
	var b strings.Builder

	coursesJSON, _ := json.MarshalIndent(courses, "", "  ")
	fmt.Fprintf(&b, `The following course data has some null, empty, or unknown values. Please fix these by:
1. Using context from previous pages and recent courses
2. Making reasonable inferences based on course patterns
3. Using standard academic conventions
4. Ensuring all required fields are properly filled

COURSE DATA TO FIX:
%s
`, coursesJSON)

	if len(contextUnits) > 0 {
		b.WriteString("\nCONTEXT FROM PREVIOUS PAGES:\n")
		for i, u := range contextUnits {
			preview := u.Content
			if len(preview) > 300 {
				preview = preview[:300] + "..."
			}
			fmt.Fprintf(&b, "Page %d: %s\n", i+1, preview)
		}
	}

	if len(contextCourses) > 0 {
		recentJSON, _ := json.MarshalIndent(contextCourses, "", "  ")
		fmt.Fprintf(&b, "\nRECENT COURSES FOR REFERENCE:\n%s\n", recentJSON)
	}

	b.WriteString("\nReturn ONLY the corrected JSON array with all null/unknown values fixed. No additional text.")
	return b.String()
}

// stripFences removes a ```json / ``` fence wrapping, which models add
// despite instructions.
func stripFences(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	return strings.TrimSpace(response)
}
