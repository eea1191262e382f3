package catalog

import (
	"sync"
)

// Window holds the bounded context consulted by extractors to disambiguate
// content split across unit boundaries: the last few source units and the
// last few accepted courses. The overlap slice (the most recent accepted
// courses) is handed to the extractor separately so it can complete a course
// that continues onto the next unit instead of emitting a duplicate.
type Window struct {
	mu           sync.Mutex
	units        []Unit
	courses      []Course
	maxUnits     int
	maxCourses   int
	overlapCount int
}

// NewWindow creates a window keeping the last maxUnits units, the last
// maxCourses accepted courses, and exposing the last overlapCount courses as
// the overlap set.
func NewWindow(maxUnits, maxCourses, overlapCount int) *Window {
	if maxUnits < 0 {
		maxUnits = 0
	}
	if maxCourses < 0 {
		maxCourses = 0
	}
	if overlapCount < 0 {
		overlapCount = 0
	}
	return &Window{
		maxUnits:     maxUnits,
		maxCourses:   maxCourses,
		overlapCount: overlapCount,
	}
}

// PushUnit records a processed unit, evicting the oldest beyond the bound.
func (w *Window) PushUnit(u Unit) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.maxUnits == 0 {
		return
	}
	w.units = append(w.units, u)
	if len(w.units) > w.maxUnits {
		w.units = w.units[len(w.units)-w.maxUnits:]
	}
}

// PushCourses records accepted courses, evicting the oldest beyond the bound.
func (w *Window) PushCourses(courses []Course) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.maxCourses == 0 {
		return
	}
	w.courses = append(w.courses, courses...)
	if len(w.courses) > w.maxCourses {
		w.courses = w.courses[len(w.courses)-w.maxCourses:]
	}
}

// Units returns a copy of the buffered units, oldest first.
func (w *Window) Units() []Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Unit, len(w.units))
	copy(out, w.units)
	return out
}

// Courses returns a copy of the buffered courses, oldest first.
func (w *Window) Courses() []Course {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Course, len(w.courses))
	copy(out, w.courses)
	return out
}

// Overlap returns the most recent accepted courses, up to the configured
// overlap count.
func (w *Window) Overlap() []Course {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.overlapCount
	if n > len(w.courses) {
		n = len(w.courses)
	}
	out := make([]Course, n)
	copy(out, w.courses[len(w.courses)-n:])
	return out
}
