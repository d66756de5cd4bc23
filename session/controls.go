package session

import (
	"sync"
	"time"
)

// DefaultHideAfter is how long controls stay up without activity while playing.
const DefaultHideAfter = 3 * time.Second

// Controls is the visibility policy for on-screen controls: they hide after
// a period without activity while playing and always show while paused.
type Controls struct {
	HideAfter time.Duration

	mu       sync.Mutex
	activity time.Time
}

func NewControls(hideAfter time.Duration) *Controls {
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}
	return &Controls{HideAfter: hideAfter}
}

// Touch records user activity.
func (c *Controls) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = now
}

// Visible reports whether controls should be shown at now.
func (c *Controls) Visible(now time.Time, playing bool) bool {
	if !playing {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.activity) < c.HideAfter
}

// HideAt is when controls hide if nothing else happens.
func (c *Controls) HideAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activity.Add(c.HideAfter)
}
