package catalog

import (
	"strings"
)

// Course represents a single catalog item extracted from a source unit.
// Field names on the wire follow the combined-catalog JSON format consumed
// by the downstream normalization scripts.
type Course struct {
	Prefix        string `json:"course_prefix"`
	Number        string `json:"course_number"`
	Title         string `json:"course_title"`
	Description   string `json:"course_desc"`
	Units         string `json:"num_units"`
	Department    string `json:"dept_name"`
	InstitutionID int    `json:"inst_ipeds"`
	Metadata      string `json:"metadata"`
}

// placeholders are the literal tokens treated as "no value" when deciding
// whether a field needs repair or may be overwritten by a fuller version.
var placeholders = map[string]bool{
	"":        true,
	"unknown": true,
	"null":    true,
	"n/a":     true,
}

// IsPlaceholder reports whether a field value carries no real information.
func IsPlaceholder(value string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(value))]
}

// Key returns the case-normalized natural key of the course.
func (c *Course) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.Prefix)) + "-" + strings.ToUpper(strings.TrimSpace(c.Number))
}

// Valid reports whether both natural key components are present.
// Candidates without a key are discarded at the extractor boundary.
func (c *Course) Valid() bool {
	return !IsPlaceholder(c.Prefix) && !IsPlaceholder(c.Number)
}

// NeedsRepair reports whether any string field still carries a placeholder
// value after extraction.
func (c *Course) NeedsRepair() bool {
	for _, v := range []string{c.Prefix, c.Number, c.Title, c.Description, c.Units, c.Department, c.Metadata} {
		if IsPlaceholder(v) {
			return true
		}
	}
	return false
}

// MergeFrom overwrites the course's fields with the non-placeholder fields
// of a fuller observation of the same key (overlap completion).
func (c *Course) MergeFrom(update *Course) {
	if !IsPlaceholder(update.Title) {
		c.Title = update.Title
	}
	if !IsPlaceholder(update.Description) {
		c.Description = update.Description
	}
	if !IsPlaceholder(update.Units) {
		c.Units = update.Units
	}
	if !IsPlaceholder(update.Department) {
		c.Department = update.Department
	}
	if !IsPlaceholder(update.Metadata) {
		c.Metadata = update.Metadata
	}
	if update.InstitutionID != 0 {
		c.InstitutionID = update.InstitutionID
	}
}

// FlattenMetadata joins secondary attributes (prerequisites, contact hours,
// semester offered) into the single metadata string persisted on the record.
func FlattenMetadata(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}

// Unit is one addressable chunk of raw source content: a rendered page, a
// document page, or a department listing. Read-only once fetched.
type Unit struct {
	Ordinal  int
	Location string
	Content  string
}
