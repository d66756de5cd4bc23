// Package source defines the watchable episode model and classifies its source URLs into playback strategies.
package source

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Quality is a vertical-resolution tier as keyed by the catalog ("360", "480", "720").
type Quality string

const (
	Q360 Quality = "360"
	Q480 Quality = "480"
	Q720 Quality = "720"
)

// DefaultQuality is selected when a session starts without a preference.
const DefaultQuality = Q720

// Qualities lists every recognized tier in ascending order.
var Qualities = []Quality{Q360, Q480, Q720}

// String returns the display label, e.g. "720p".
func (q Quality) String() string {
	return string(q) + "p"
}

// Valid reports whether q is a recognized tier.
func (q Quality) Valid() bool {
	return lo.Contains(Qualities, q)
}

// ParseQuality accepts "720" and "720p" forms.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p"))
	if !q.Valid() {
		return "", fmt.Errorf("unknown quality %q, expected one of %v", s, Qualities)
	}
	return q, nil
}
