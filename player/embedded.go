package player

import (
	"github.com/samber/mo"
)

// Embedded plays a page inside an opaque Surface. It reports ready as soon as
// the surface is attached and has no observable position or duration;
// transport controls are accepted and ignored.
type Embedded struct {
	surface Surface
}

func NewEmbedded(surface Surface) *Embedded {
	return &Embedded{surface: surface}
}

func (e *Embedded) Kind() Kind { return KindEmbedded }

func (e *Embedded) Attach(url string, events Events) error {
	if err := e.surface.Open(url); err != nil {
		return AsError(err)
	}

	events.ready(mo.None[float64]())
	return nil
}

func (e *Embedded) Detach() error {
	if err := e.surface.Close(); err != nil {
		return AsError(err)
	}
	return nil
}

func (*Embedded) Play() error { return nil }
func (*Embedded) Pause() error { return nil }
func (*Embedded) Seek(float64) error { return nil }
func (*Embedded) SetVolume(float64) error { return nil }
