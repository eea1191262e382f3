package catalog

import (
	"sync"
)

// Decision is the outcome of admitting a candidate course.
type Decision int

const (
	// Accepted means the natural key was new and the course was committed.
	Accepted Decision = iota
	// Updated means an already-committed course was completed in place.
	Updated
	// Rejected means the key was already committed and no update was requested.
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case Updated:
		return "updated"
	default:
		return "rejected"
	}
}

// Deduplicator gates admission of courses by natural key. Admission is a
// single atomic check-and-insert, safe under concurrent workers.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]bool)}
}

// Admit commits a new natural key. Plain duplicates are rejected.
func (d *Deduplicator) Admit(c *Course) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := c.Key()
	if d.seen[key] {
		return Rejected
	}
	d.seen[key] = true
	return Accepted
}

// Complete is the explicit overlap path: an existing key means the caller is
// completing a partial course rather than duplicating it. A key may be
// completed more than once when a course spans three or more units.
func (d *Deduplicator) Complete(c *Course) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := c.Key()
	if d.seen[key] {
		return Updated
	}
	d.seen[key] = true
	return Accepted
}

// Seen reports whether a key is already committed.
func (d *Deduplicator) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[key]
}

// Len returns the number of committed keys.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
