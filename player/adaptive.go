package player

import (
	"sync"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/hls"
	"github.com/dramaplay/dramaplay/log"
	"github.com/samber/mo"
)

// StreamEngine is a software adaptive-stream engine that turns a manifest
// into a stream the MediaElement can play progressively.
type StreamEngine interface {
	Load(manifestURL string, listener hls.Listener) error
	// URL is the local stream address, valid after Load.
	URL() string
	// SeekURL is a stream address starting near seconds, with its actual start time.
	SeekURL(seconds float64) (string, float64)
	// Destroy stops the engine. No listener call happens after it returns.
	Destroy()
}

// Adaptive plays HLS manifests. It prefers the element's native support and
// falls back to a software engine feeding the element.
type Adaptive struct {
	*Native
	newEngine func() StreamEngine

	mu       sync.Mutex
	engine   StreamEngine
	events   Events
	detached bool
	playing  bool
	offset   float64
}

func NewAdaptive(element MediaElement, newEngine func() StreamEngine) *Adaptive {
	return &Adaptive{
		Native:    &Native{element: element, kind: KindAdaptive},
		newEngine: newEngine,
	}
}

func (a *Adaptive) Attach(url string, events Events) error {
	a.mu.Lock()
	a.detached = false
	a.playing = false
	a.offset = 0
	a.events = events
	a.mu.Unlock()

	if a.element.CanPlayType(constant.MimeHLS) {
		log.Debug("playing adaptive stream natively")
		return a.Native.Attach(url, events)
	}

	if a.newEngine == nil {
		return NewError(UnsupportedFormat, "")
	}

	engine := a.newEngine()
	if engine == nil {
		return NewError(UnsupportedFormat, "")
	}

	a.mu.Lock()
	a.engine = engine
	a.mu.Unlock()

	a.Native.mu.Lock()
	a.Native.ready = false
	a.Native.duration = mo.None[float64]()
	a.Native.mu.Unlock()

	log.Debug("playing adaptive stream through the software engine")
	err := engine.Load(url, hls.Listener{
		ManifestParsed: func(duration float64) {
			a.mu.Lock()
			defer a.mu.Unlock()

			if a.detached || a.engine != engine {
				return
			}

			listener := a.engineListener(events)
			// the element only sees a live stream; the manifest has the real duration
			listener.Metadata(duration)
			listener.Metadata = func(float64) {}

			if err := a.element.Load(engine.URL(), listener); err != nil {
				events.failed(AsError(err))
			}
		},
		Error: func(fatal bool, details string) {
			if !fatal {
				log.Warnf("stream engine: %s", details)
				return
			}
			events.failed(NewError(StreamEngineFatal, details))
		},
	})
	if err != nil {
		return AsError(err)
	}

	return nil
}

// engineListener shifts element positions by the start of the streamed range.
func (a *Adaptive) engineListener(events Events) ElementListener {
	listener := a.listener(events)
	listener.TimeUpdate = func(pos float64) {
		a.mu.Lock()
		offset := a.offset
		a.mu.Unlock()

		events.timeUpdate(pos + offset)
	}
	return listener
}

func (a *Adaptive) Play() error {
	if err := a.Native.Play(); err != nil {
		return err
	}

	a.mu.Lock()
	a.playing = true
	a.mu.Unlock()
	return nil
}

func (a *Adaptive) Pause() error {
	if err := a.Native.Pause(); err != nil {
		return err
	}

	a.mu.Lock()
	a.playing = false
	a.mu.Unlock()
	return nil
}

// Seek on the engine stream reopens it at the segment holding the target.
func (a *Adaptive) Seek(seconds float64) error {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()

	if engine == nil {
		return a.Native.Seek(seconds)
	}

	url, start := engine.SeekURL(seconds)

	a.mu.Lock()
	a.offset = start
	playing := a.playing
	listener := a.engineListener(a.events)
	a.mu.Unlock()

	listener.Metadata = func(float64) {}
	if err := a.element.Load(url, listener); err != nil {
		return AsError(err)
	}

	if playing {
		return a.Native.Play()
	}
	return nil
}

func (a *Adaptive) Detach() error {
	a.mu.Lock()
	a.detached = true
	engine := a.engine
	a.engine = nil
	a.mu.Unlock()

	if engine != nil {
		engine.Destroy()
	}

	return a.Native.Detach()
}
