package tui

import (
	"time"

	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/util"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

var terminalSize = util.TerminalSize

type snapshotMsg struct {
	session  *session.Session
	snapshot session.Snapshot
}

type sessionClosedMsg struct {
	session *session.Session
}

type controlsTickMsg struct{}

func (b *statefulBubble) waitForSnapshot() tea.Cmd {
	s, snapshots := b.session, b.snapshots
	if s == nil {
		return nil
	}

	return func() tea.Msg {
		select {
		case snap := <-snapshots:
			return snapshotMsg{session: s, snapshot: snap}
		case <-s.Done():
			return sessionClosedMsg{session: s}
		}
	}
}

// touch marks activity and schedules a redraw for when controls should hide.
func (b *statefulBubble) touch() tea.Cmd {
	b.controls.Touch(time.Now())
	return tea.Tick(time.Until(b.controls.HideAt())+10*time.Millisecond, func(time.Time) tea.Msg {
		return controlsTickMsg{}
	})
}

// qualityForKey maps the number row to quality tiers, lowest first.
func qualityForKey(k string) (source.Quality, bool) {
	switch k {
	case "1":
		return source.Q360, true
	case "2":
		return source.Q480, true
	case "3":
		return source.Q720, true
	default:
		return "", false
	}
}

// nextQuality returns the available tier after current, wrapping around.
func nextQuality(available []source.Quality, current source.Quality) (source.Quality, bool) {
	if len(available) == 0 {
		return "", false
	}

	_, index, found := lo.FindIndexOf(available, func(q source.Quality) bool { return q == current })
	if !found {
		return available[0], true
	}
	return available[(index+1)%len(available)], true
}

func (b *statefulBubble) neighbour(next bool) (*source.Episode, bool) {
	if b.current == nil {
		return nil, false
	}

	prev, following := source.Neighbours(b.options.Episodes, b.current.EpsNumber)
	if next {
		return following.Get()
	}
	return prev.Get()
}
