package source

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Episode is one unit of watchable content as supplied by the catalog.
// It is immutable for the life of a playback session.
type Episode struct {
	// EpsNumber is the episode ordinal, starting at 1.
	EpsNumber int `json:"eps_number"`
	// URL maps a quality tier to its source. Missing and empty entries mean no source.
	URL map[Quality]string `json:"url"`
}

// SourceFor returns the trimmed URL for q, or "" if there is none.
func (e *Episode) SourceFor(q Quality) string {
	if e == nil || e.URL == nil {
		return ""
	}
	return strings.TrimSpace(e.URL[q])
}

// Available returns the tiers with a non-empty URL, ascending.
func (e *Episode) Available() []Quality {
	return lo.Filter(Qualities, func(q Quality, _ int) bool {
		return e.SourceFor(q) != ""
	})
}

// HasSource reports whether at least one tier is playable.
func (e *Episode) HasSource() bool {
	return len(e.Available()) > 0
}

// Resolve classifies the source of tier q.
func (e *Episode) Resolve(q Quality) Resolution {
	return Resolve(e.SourceFor(q))
}

// Neighbours finds the episodes numbered one below and one above current.
func Neighbours(all []*Episode, current int) (prev, next mo.Option[*Episode]) {
	find := func(n int) mo.Option[*Episode] {
		ep, ok := lo.Find(all, func(e *Episode) bool { return e.EpsNumber == n })
		if !ok {
			return mo.None[*Episode]()
		}
		return mo.Some(ep)
	}
	return find(current - 1), find(current + 1)
}
