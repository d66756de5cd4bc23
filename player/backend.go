// Package player defines the playback backends a session drives and the platform media element behind them.
//
// Three interchangeable backends exist: an embedded third-party player surface,
// native progressive playback and native adaptive playback. The native backends
// share one MediaElement, which on desktop is an mpv process driven over JSON-IPC.
package player

import (
	"fmt"

	"github.com/dramaplay/dramaplay/source"
	"github.com/samber/mo"
)

// Kind identifies the active backend.
type Kind int

const (
	KindNone Kind = iota
	KindEmbedded
	KindProgressive
	KindAdaptive
)

func (k Kind) String() string {
	switch k {
	case KindEmbedded:
		return "embedded"
	case KindProgressive:
		return "native-progressive"
	case KindAdaptive:
		return "native-adaptive"
	default:
		return "none"
	}
}

// KindFor maps a resolved source to the backend that plays it.
func KindFor(res source.Resolution) Kind {
	switch res.Strategy {
	case source.Embedded:
		return KindEmbedded
	case source.Direct:
		if res.Format == source.AdaptiveStream {
			return KindAdaptive
		}
		return KindProgressive
	default:
		return KindNone
	}
}

// Events are the asynchronous signals a backend raises after Attach.
// Any of them may be called from any goroutine.
type Events struct {
	// Ready fires once, when media is ready to play. Duration is absent for opaque backends.
	Ready func(duration mo.Option[float64])
	// DurationChange reports a duration learned after Ready.
	DurationChange func(duration float64)
	// TimeUpdate reports the playback position in seconds.
	TimeUpdate func(position float64)
	// Ended fires at end of media.
	Ended func()
	// Failed reports a fatal error for the attachment, already mapped into the taxonomy.
	Failed func(err *Error)
}

func (e Events) ready(d mo.Option[float64]) {
	if e.Ready != nil {
		e.Ready(d)
	}
}

func (e Events) durationChange(d float64) {
	if e.DurationChange != nil {
		e.DurationChange(d)
	}
}

func (e Events) timeUpdate(pos float64) {
	if e.TimeUpdate != nil {
		e.TimeUpdate(pos)
	}
}

func (e Events) ended() {
	if e.Ended != nil {
		e.Ended()
	}
}

func (e Events) failed(err *Error) {
	if e.Failed != nil {
		e.Failed(err)
	}
}

// Backend is the capability set shared by all playback backends.
// Methods may block; callers run them off the control loop.
// Errors returned are always *Error.
type Backend interface {
	Kind() Kind
	Attach(url string, events Events) error
	Detach() error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(level float64) error
}

// Fullscreener is implemented by backends that can toggle fullscreen on the platform.
type Fullscreener interface {
	SetFullscreen(on bool) error
}

// Factory creates a fresh backend of the given kind.
type Factory interface {
	New(kind Kind) (Backend, error)
}

// Platform is the production Factory. Native backends share Element.
type Platform struct {
	Element MediaElement
	Surface Surface
	// Engine creates a software adaptive-stream engine. Nil when none is available.
	Engine func() StreamEngine
}

// New implements Factory.
func (p *Platform) New(kind Kind) (Backend, error) {
	switch kind {
	case KindEmbedded:
		if p.Surface == nil {
			return nil, fmt.Errorf("no embedded player surface configured")
		}
		return NewEmbedded(p.Surface), nil
	case KindProgressive:
		return NewProgressive(p.Element), nil
	case KindAdaptive:
		return NewAdaptive(p.Element, p.Engine), nil
	default:
		return nil, fmt.Errorf("no backend for kind %s", kind)
	}
}
