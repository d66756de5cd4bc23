// Package tui provides the terminal watch view: an episode list and a player
// control surface bound to a playback session.
package tui

import (
	"time"

	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
)

// closeTimeout bounds how long quitting waits for the player to be released.
const closeTimeout = 3 * time.Second

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Title    string
	Episodes []*source.Episode
	// Episode, when set, starts playing that episode number right away.
	Episode mo.Option[int]
	Quality source.Quality
	// NewSession builds a fresh session for each episode watched.
	NewSession func() *session.Session
	HideAfter  time.Duration
}

// Run initializes and executes the Bubble Tea application loop.
func Run(options *Options) error {
	bubble := newBubble(options)

	var cmd tea.Cmd
	if number, ok := options.Episode.Get(); ok {
		if ep, found := bubble.episodeByNumber(number); found {
			cmd = bubble.watch(ep)
		}
	}

	bubble.init = cmd
	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()

	if done := bubble.stopWatching(); done != nil {
		select {
		case <-done:
		case <-time.After(closeTimeout):
		}
	}
	return err
}
