package player

import (
	"sync"

	"github.com/samber/mo"
)

// Native plays a source directly on the MediaElement.
type Native struct {
	element MediaElement
	kind    Kind

	mu       sync.Mutex
	ready    bool
	duration mo.Option[float64]
}

// NewProgressive returns a backend for progressive files (mp4, webm).
func NewProgressive(element MediaElement) *Native {
	return &Native{element: element, kind: KindProgressive}
}

func (n *Native) Kind() Kind { return n.kind }

func (n *Native) Attach(url string, events Events) error {
	n.mu.Lock()
	n.ready = false
	n.duration = mo.None[float64]()
	n.mu.Unlock()

	if err := n.element.Load(url, n.listener(events)); err != nil {
		return AsError(err)
	}
	return nil
}

// listener translates element signals into backend events.
// Ready fires on the first DataReady, carrying the last reported duration.
// Durations reported after that go out as DurationChange.
func (n *Native) listener(events Events) ElementListener {
	return ElementListener{
		Metadata: func(duration float64) {
			n.mu.Lock()
			n.duration = mo.Some(duration)
			late := n.ready
			n.mu.Unlock()

			if late {
				events.durationChange(duration)
			}
		},
		DataReady: func() {
			n.mu.Lock()
			if n.ready {
				n.mu.Unlock()
				return
			}
			n.ready = true
			d := n.duration
			n.mu.Unlock()

			events.ready(d)
		},
		TimeUpdate: events.timeUpdate,
		Ended:      events.ended,
		Error: func(code MediaErrorCode, _ string) {
			events.failed(FromMediaError(code))
		},
	}
}

func (n *Native) Detach() error {
	if err := n.element.Unload(); err != nil {
		return AsError(err)
	}
	return nil
}

func (n *Native) Play() error {
	if err := n.element.Play(); err != nil {
		return NewError(PlaybackRejected, err.Error())
	}
	return nil
}

func (n *Native) Pause() error {
	if err := n.element.Pause(); err != nil {
		return AsError(err)
	}
	return nil
}

func (n *Native) Seek(seconds float64) error {
	if err := n.element.Seek(seconds); err != nil {
		return AsError(err)
	}
	return nil
}

func (n *Native) SetVolume(level float64) error {
	if err := n.element.SetVolume(level); err != nil {
		return AsError(err)
	}
	return nil
}

func (n *Native) SetFullscreen(on bool) error {
	return n.element.SetFullscreen(on)
}
