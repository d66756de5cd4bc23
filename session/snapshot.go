package session

import (
	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/source"
	"github.com/samber/mo"
)

// ErrorView is the rendered form of a session error.
type ErrorView struct {
	Kind    string `json:"kind" jsonschema:"enum=SourceUnavailable,enum=UnsupportedFormat,enum=DecodeError,enum=NetworkError,enum=AbortedError,enum=PlaybackRejected,enum=StreamEngineFatal"`
	Message string `json:"message"`
}

// Snapshot is an immutable copy of the session state, published after every change.
type Snapshot struct {
	State     State            `json:"state"`
	Episode   int              `json:"episode"`
	Quality   source.Quality   `json:"quality"`
	Available []source.Quality `json:"available_qualities"`
	Playing   bool             `json:"playing"`
	Position  float64          `json:"position"`
	// Duration is absent until metadata loads, and for embedded players.
	Duration   mo.Option[float64] `json:"duration"`
	Volume     float64            `json:"volume"`
	Muted      bool               `json:"muted"`
	Loading    bool               `json:"loading"`
	Fullscreen bool               `json:"fullscreen"`
	Backend    string             `json:"backend" jsonschema:"enum=none,enum=embedded,enum=native-progressive,enum=native-adaptive"`
	Error      *ErrorView         `json:"error,omitempty"`

	Kind player.Kind   `json:"-"`
	Err  *player.Error `json:"-"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Episode:    s.episode.EpsNumber,
		Quality:    s.quality,
		Available:  s.episode.Available(),
		Playing:    s.playing,
		Position:   s.position,
		Duration:   s.duration,
		Volume:     s.volume,
		Muted:      s.muted,
		Loading:    s.state.Loading(),
		Fullscreen: s.fullscreen,
		Backend:    s.kind.String(),
		Kind:       s.kind,
		Err:        s.err,
	}

	if s.err != nil {
		snap.Error = &ErrorView{Kind: s.err.Kind.String(), Message: s.err.Error()}
	}

	return snap
}
