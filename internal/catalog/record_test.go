package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseKey(t *testing.T) {
	course := Course{Prefix: "acc", Number: "124"}
	assert.Equal(t, "ACC-124", course.Key())

	// Keys normalize case and surrounding whitespace
	upper := Course{Prefix: " ACC ", Number: " 124 "}
	assert.Equal(t, course.Key(), upper.Key())

	suffixed := Course{Prefix: "BIOL", Number: "171L"}
	assert.Equal(t, "BIOL-171L", suffixed.Key())
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(""))
	assert.True(t, IsPlaceholder("unknown"))
	assert.True(t, IsPlaceholder("Unknown"))
	assert.True(t, IsPlaceholder("NULL"))
	assert.True(t, IsPlaceholder("n/a"))
	assert.True(t, IsPlaceholder("  "))

	assert.False(t, IsPlaceholder("ACC"))
	assert.False(t, IsPlaceholder("3"))
	assert.False(t, IsPlaceholder("V"))
}

func TestCourseValid(t *testing.T) {
	assert.True(t, (&Course{Prefix: "ACC", Number: "124"}).Valid())
	assert.False(t, (&Course{Prefix: "", Number: "124"}).Valid())
	assert.False(t, (&Course{Prefix: "ACC", Number: "unknown"}).Valid())
}

func TestCourseNeedsRepair(t *testing.T) {
	complete := Course{
		Prefix:      "ACC",
		Number:      "124",
		Title:       "Principles of Accounting I",
		Description: "An introduction to accounting.",
		Units:       "3",
		Department:  "Accounting",
		Metadata:    "Prereq: none",
	}
	assert.False(t, complete.NeedsRepair())

	missingDesc := complete
	missingDesc.Description = "unknown"
	assert.True(t, missingDesc.NeedsRepair())

	missingUnits := complete
	missingUnits.Units = ""
	assert.True(t, missingUnits.NeedsRepair())
}

func TestCourseMergeFrom(t *testing.T) {
	partial := Course{
		Prefix:      "ACC",
		Number:      "124",
		Title:       "Principles of Accounting I",
		Description: "An introduction to",
		Units:       "unknown",
	}

	update := Course{
		Prefix:        "ACC",
		Number:        "124",
		Title:         "Principles of Accounting I",
		Description:   "An introduction to accounting concepts and principles.",
		Units:         "3",
		Department:    "Accounting",
		InstitutionID: 141574,
	}

	partial.MergeFrom(&update)

	assert.Equal(t, "An introduction to accounting concepts and principles.", partial.Description)
	assert.Equal(t, "3", partial.Units)
	assert.Equal(t, "Accounting", partial.Department)
	assert.Equal(t, 141574, partial.InstitutionID)
}

func TestCourseMergeFromKeepsFieldsOnPlaceholderUpdate(t *testing.T) {
	course := Course{
		Prefix:      "ACC",
		Number:      "124",
		Title:       "Principles of Accounting I",
		Description: "A full description.",
		Units:       "3",
	}

	// Placeholder values in the update never erase existing data
	course.MergeFrom(&Course{Prefix: "ACC", Number: "124", Title: "unknown", Description: "", Units: "n/a"})

	assert.Equal(t, "Principles of Accounting I", course.Title)
	assert.Equal(t, "A full description.", course.Description)
	assert.Equal(t, "3", course.Units)
}

func TestFlattenMetadata(t *testing.T) {
	assert.Equal(t, "Prereq: ACC 124; 3 hours lecture", FlattenMetadata([]string{"Prereq: ACC 124", "3 hours lecture"}))
	assert.Equal(t, "Prereq: ACC 124", FlattenMetadata([]string{"", "Prereq: ACC 124", "  "}))
	assert.Equal(t, "", FlattenMetadata(nil))
}

func TestCourseJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Course{
		Prefix:        "ACC",
		Number:        "124",
		Title:         "Principles of Accounting I",
		Description:   "Intro.",
		Units:         "3",
		Department:    "Accounting",
		InstitutionID: 141574,
		Metadata:      "Prereq: none",
	})
	assert.NoError(t, err)

	var raw map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"course_prefix", "course_number", "course_title", "course_desc",
		"num_units", "dept_name", "inst_ipeds", "metadata",
	} {
		assert.Contains(t, raw, key)
	}
}
