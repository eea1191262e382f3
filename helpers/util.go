package helpers

import (
	"strings"
)

// NormalizeURL strips fragments and trailing slashes so the same location is
// never visited twice under a cosmetically different address.
func NormalizeURL(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
