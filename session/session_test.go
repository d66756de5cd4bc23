package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeBackend struct {
	factory  *fakeFactory
	kind     player.Kind
	url      string
	events   player.Events
	attached bool
	calls    []string
	playErr  error
	fullErr  error
	onAttach func()
}

func (b *fakeBackend) Kind() player.Kind { return b.kind }

func (b *fakeBackend) Attach(url string, events player.Events) error {
	b.url = url
	b.events = events
	b.attached = true
	b.factory.live++
	b.factory.maxLive = max(b.factory.maxLive, b.factory.live)

	if b.onAttach != nil {
		b.onAttach()
	}

	if b.factory.attachErr != nil {
		return b.factory.attachErr
	}

	if b.kind == player.KindEmbedded {
		events.Ready(mo.None[float64]())
	}
	return nil
}

func (b *fakeBackend) Detach() error {
	if b.attached {
		b.attached = false
		b.factory.live--
	}
	return nil
}

func (b *fakeBackend) Play() error {
	b.calls = append(b.calls, "play")
	return b.playErr
}

func (b *fakeBackend) Pause() error {
	b.calls = append(b.calls, "pause")
	return nil
}

func (b *fakeBackend) Seek(seconds float64) error {
	b.calls = append(b.calls, fmt.Sprintf("seek %.1f", seconds))
	return nil
}

func (b *fakeBackend) SetVolume(level float64) error {
	b.calls = append(b.calls, fmt.Sprintf("volume %.1f", level))
	return nil
}

func (b *fakeBackend) SetFullscreen(on bool) error {
	return b.fullErr
}

type fakeFactory struct {
	backends  []*fakeBackend
	live      int
	maxLive   int
	attachErr error
	prepare   func(*fakeBackend)
}

func (f *fakeFactory) New(kind player.Kind) (player.Backend, error) {
	b := &fakeBackend{factory: f, kind: kind}
	if f.prepare != nil {
		f.prepare(b)
	}
	f.backends = append(f.backends, b)
	return b, nil
}

func (f *fakeFactory) last() *fakeBackend {
	return f.backends[len(f.backends)-1]
}

func (f *fakeFactory) urls() []string {
	urls := make([]string, len(f.backends))
	for i, b := range f.backends {
		urls[i] = b.url
	}
	return urls
}

type harness struct {
	loop    *ManualLoop
	worker  *ManualLoop
	factory *fakeFactory
	s       *Session
	snaps   []Snapshot
}

func newHarness() *harness {
	h := &harness{
		loop:    NewManualLoop(),
		worker:  NewManualLoop(),
		factory: &fakeFactory{},
	}
	h.s = New(Options{Factory: h.factory, Loop: h.loop, Worker: h.worker})
	h.s.Subscribe(func(s Snapshot) { h.snaps = append(h.snaps, s) })
	h.settle()
	return h
}

// settle runs both loops until neither has work left.
func (h *harness) settle() {
	for h.loop.Len()+h.worker.Len() > 0 {
		h.loop.Drain()
		h.worker.Drain()
	}
}

func (h *harness) snap() Snapshot {
	return h.s.Snapshot()
}

func (h *harness) ready(b *fakeBackend, duration float64) {
	b.events.Ready(mo.Some(duration))
	h.settle()
}

func (h *harness) playing(position float64) *fakeBackend {
	b := h.factory.last()
	h.ready(b, 100)
	h.s.Play()
	h.settle()
	b.events.TimeUpdate(position)
	h.settle()
	return b
}

func progressive() source.Episode {
	return source.Episode{EpsNumber: 3, URL: map[source.Quality]string{
		source.Q360: "https://cdn/ep3-360.mp4",
		source.Q480: "https://cdn/ep3-480.mp4",
		source.Q720: "https://cdn/ep3-720.mp4",
	}}
}

func TestInitialize(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		h := newHarness()
		So(h.snap().State, ShouldEqual, Idle)

		Convey("An adaptive-only episode loads and becomes ready on the manifest", func() {
			ep := source.Episode{EpsNumber: 1, URL: map[source.Quality]string{
				source.Q360: "", source.Q480: "", source.Q720: "https://x/a.m3u8",
			}}
			h.s.Initialize(ep, source.Q720)
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Loading)
			So(snap.Loading, ShouldBeTrue)
			So(snap.Available, ShouldResemble, []source.Quality{source.Q720})
			So(snap.Backend, ShouldEqual, "native-adaptive")
			So(h.factory.live, ShouldEqual, 1)

			h.ready(h.factory.last(), 1440)
			snap = h.snap()
			So(snap.State, ShouldEqual, Ready)
			So(snap.Loading, ShouldBeFalse)
			So(snap.Duration.MustGet(), ShouldEqual, 1440)
			So(h.factory.last().calls, ShouldContain, "volume 1.0")
		})

		Convey("An episode without sources fails immediately", func() {
			ep := source.Episode{EpsNumber: 2, URL: map[source.Quality]string{
				source.Q360: "", source.Q480: "  ", source.Q720: "",
			}}
			h.s.Initialize(ep, source.Q720)
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Errored)
			So(snap.Err.Kind, ShouldEqual, player.SourceUnavailable)
			So(snap.Error.Message, ShouldEqual, "No video URL available for 720p quality")
			So(h.factory.backends, ShouldBeEmpty)
		})

		Convey("An embedded source is ready without a duration", func() {
			ep := source.Episode{EpsNumber: 4, URL: map[source.Quality]string{
				source.Q720: "https://host/bunny.php?v=4",
			}}
			h.s.Initialize(ep, source.Q720)
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Ready)
			So(snap.Backend, ShouldEqual, "embedded")
			So(snap.Duration.IsAbsent(), ShouldBeTrue)

			Convey("Transport controls are inert", func() {
				h.s.Play()
				h.s.Seek(30)
				h.settle()
				So(h.factory.last().calls, ShouldBeEmpty)
				So(h.snap().Playing, ShouldBeFalse)
			})
		})

		Convey("A backend failure while loading is surfaced", func() {
			h.s.Initialize(progressive(), source.Q720)
			h.settle()
			h.factory.last().events.Failed(player.NewError(player.NetworkError, ""))
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Errored)
			So(snap.Error.Kind, ShouldEqual, "NetworkError")
			So(snap.Error.Message, ShouldEqual, "Network error occurred while loading video")
			So(h.factory.live, ShouldEqual, 1)
		})

		Convey("A failing attach is released and surfaced", func() {
			h.factory.attachErr = player.NewError(player.UnsupportedFormat, "")
			h.s.Initialize(progressive(), source.Q720)
			h.settle()

			So(h.snap().Err.Kind, ShouldEqual, player.UnsupportedFormat)
			So(h.factory.live, ShouldEqual, 0)
		})

		Convey("An invalid quality falls back to the default", func() {
			h.s.Initialize(progressive(), source.Quality("1080"))
			h.settle()
			So(h.snap().Quality, ShouldEqual, source.Q720)
		})

		Convey("Subscribers see every step", func() {
			h.s.Initialize(progressive(), source.Q720)
			h.settle()
			h.ready(h.factory.last(), 100)

			states := make([]State, 0, len(h.snaps))
			for _, s := range h.snaps {
				if len(states) == 0 || states[len(states)-1] != s.State {
					states = append(states, s.State)
				}
			}
			So(states, ShouldResemble, []State{Idle, Loading, Ready})
		})
	})
}

func TestQualityChange(t *testing.T) {
	Convey("Given a session playing at 720p", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		old := h.playing(42.5)
		So(h.snap().State, ShouldEqual, Playing)

		Convey("Switching resumes at the captured position and keeps playing", func() {
			h.s.ChangeQuality(source.Q480)
			h.settle()

			So(h.snap().State, ShouldEqual, QualityChangePending)
			So(old.attached, ShouldBeFalse)

			next := h.factory.last()
			So(next.url, ShouldEqual, "https://cdn/ep3-480.mp4")
			h.ready(next, 100)

			snap := h.snap()
			So(snap.State, ShouldEqual, Playing)
			So(snap.Playing, ShouldBeTrue)
			So(snap.Position, ShouldEqual, 42.5)
			So(snap.Quality, ShouldEqual, source.Q480)
			So(next.calls, ShouldContain, "seek 42.5")
			So(next.calls, ShouldContain, "play")
			So(h.factory.live, ShouldEqual, 1)
		})

		Convey("A paused session stays paused after switching", func() {
			h.s.Pause()
			h.settle()
			h.s.ChangeQuality(source.Q360)
			h.settle()

			next := h.factory.last()
			h.ready(next, 100)
			So(h.snap().Playing, ShouldBeFalse)
			So(next.calls, ShouldNotContain, "play")
			So(next.calls, ShouldContain, "seek 42.5")
		})

		Convey("A switch before the backend confirms play still resumes playing", func() {
			h.s.Pause()
			h.settle()
			h.s.Play()
			h.loop.Drain()
			So(h.snap().Playing, ShouldBeFalse)

			h.s.ChangeQuality(source.Q480)
			h.settle()
			next := h.factory.last()
			h.ready(next, 100)

			So(h.snap().Playing, ShouldBeTrue)
			So(next.calls, ShouldContain, "play")
		})

		Convey("The latest of overlapping switches wins without attaching the earlier one", func() {
			h.s.ChangeQuality(source.Q360)
			h.s.ChangeQuality(source.Q480)
			h.settle()

			So(h.factory.urls(), ShouldResemble, []string{"https://cdn/ep3-720.mp4", "https://cdn/ep3-480.mp4"})
			So(h.factory.live, ShouldEqual, 1)
			So(h.factory.last().attached, ShouldBeTrue)

			h.ready(h.factory.last(), 100)
			So(h.snap().Quality, ShouldEqual, source.Q480)
			So(h.snap().Position, ShouldEqual, 42.5)
			So(h.snap().Playing, ShouldBeTrue)
		})

		Convey("A switch superseded mid-attach releases the abandoned backend", func() {
			h.factory.prepare = func(b *fakeBackend) {
				if len(h.factory.backends) == 1 {
					// a newer request lands on the control loop while this attach blocks
					b.onAttach = func() { h.s.gen.Add(1) }
				}
			}
			h.s.ChangeQuality(source.Q360)
			h.settle()

			So(h.factory.backends, ShouldHaveLength, 2)
			So(h.factory.last().attached, ShouldBeFalse)
			So(h.factory.live, ShouldEqual, 0)
			So(h.factory.maxLive, ShouldEqual, 1)
		})

		Convey("Late signals from a replaced backend are ignored", func() {
			h.s.ChangeQuality(source.Q480)
			h.settle()

			old.events.Ready(mo.Some(5.0))
			old.events.TimeUpdate(99)
			old.events.Failed(player.NewError(player.DecodeError, ""))
			old.events.Ended()
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, QualityChangePending)
			So(snap.Err, ShouldBeNil)
			So(snap.Position, ShouldEqual, 42.5)
			So(snap.Duration.IsAbsent(), ShouldBeTrue)

			h.ready(h.factory.last(), 100)
			So(h.snap().State, ShouldEqual, Playing)
		})

		Convey("Switching to a missing tier fails but keeps position and play state", func() {
			ep := progressive()
			ep.URL[source.Q360] = ""
			h2 := newHarness()
			h2.s.Initialize(ep, source.Q720)
			h2.settle()
			h2.playing(12)

			h2.s.ChangeQuality(source.Q360)
			h2.settle()

			snap := h2.snap()
			So(snap.State, ShouldEqual, Errored)
			So(snap.Error.Message, ShouldEqual, "No video URL available for 360p quality")
			So(snap.Position, ShouldEqual, 12)
			So(snap.Playing, ShouldBeTrue)
			So(h2.factory.live, ShouldEqual, 0)

			Convey("and switching back resumes", func() {
				h2.s.ChangeQuality(source.Q720)
				h2.settle()
				next := h2.factory.last()
				h2.ready(next, 100)

				So(h2.snap().State, ShouldEqual, Playing)
				So(next.calls, ShouldContain, "seek 12.0")
			})
		})

		Convey("Switching to an embedded tier skips the resume", func() {
			ep := progressive()
			ep.URL[source.Q360] = "https://host/embed/3"
			h2 := newHarness()
			h2.s.Initialize(ep, source.Q720)
			h2.settle()
			h2.playing(12)

			h2.s.ChangeQuality(source.Q360)
			h2.settle()

			snap := h2.snap()
			So(snap.State, ShouldEqual, Ready)
			So(snap.Backend, ShouldEqual, "embedded")
			So(snap.Duration.IsAbsent(), ShouldBeTrue)
			So(snap.Playing, ShouldBeFalse)
			So(h2.factory.last().calls, ShouldBeEmpty)
		})

		Convey("Any run of switches leaves exactly one backend", func() {
			for _, q := range []source.Quality{source.Q360, source.Q480, source.Q720, source.Q360, source.Q480} {
				h.s.ChangeQuality(q)
				if q == source.Q720 {
					h.settle()
				}
			}
			h.settle()

			So(h.factory.live, ShouldEqual, 1)
			So(h.factory.maxLive, ShouldEqual, 1)
			So(h.factory.last().url, ShouldEqual, "https://cdn/ep3-480.mp4")
		})
	})
}

func TestTransport(t *testing.T) {
	Convey("Given a ready session", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		b := h.factory.last()
		h.ready(b, 100)

		Convey("Play is confirmed before the flag flips", func() {
			h.s.Play()
			h.loop.Drain()
			So(h.snap().Playing, ShouldBeFalse)

			h.settle()
			So(h.snap().Playing, ShouldBeTrue)
			So(h.snap().State, ShouldEqual, Playing)
		})

		Convey("A rejected play errors without flipping the flag", func() {
			b.playErr = errors.New("autoplay blocked")
			h.s.Play()
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Errored)
			So(snap.Playing, ShouldBeFalse)
			So(snap.Err.Kind, ShouldEqual, player.PlaybackRejected)
			So(snap.Error.Message, ShouldEqual, "Playback failed: autoplay blocked")

			Convey("and transport is ignored until retry", func() {
				b.playErr = nil
				calls := len(b.calls)
				h.s.Play()
				h.s.Seek(10)
				h.settle()
				So(b.calls, ShouldHaveLength, calls)
			})
		})

		Convey("The last intent wins over confirmation order", func() {
			h.s.Play()
			h.s.Pause()
			h.settle()
			So(h.snap().Playing, ShouldBeFalse)
			So(h.snap().State, ShouldEqual, Paused)

			h.s.Pause()
			h.s.Play()
			h.settle()
			So(h.snap().Playing, ShouldBeTrue)
		})

		Convey("Toggle follows the latest intent", func() {
			h.s.TogglePlay()
			h.s.TogglePlay()
			h.s.TogglePlay()
			h.settle()
			So(h.snap().Playing, ShouldBeTrue)
		})

		Convey("Seeks are clamped to the known duration", func() {
			h.s.Seek(150)
			h.settle()
			So(h.snap().Position, ShouldEqual, 100)

			h.s.Seek(-5)
			h.settle()
			So(h.snap().Position, ShouldEqual, 0)

			h.s.Seek(30)
			h.s.SeekBy(10)
			h.settle()
			So(h.snap().Position, ShouldEqual, 40)
			So(b.calls, ShouldContain, "seek 40.0")
		})

		Convey("End of media pauses", func() {
			h.s.Play()
			h.settle()
			b.events.Ended()
			h.settle()
			So(h.snap().State, ShouldEqual, Paused)
			So(h.snap().Playing, ShouldBeFalse)
		})

		Convey("Time updates move the position", func() {
			b.events.TimeUpdate(7.25)
			h.settle()
			So(h.snap().Position, ShouldEqual, 7.25)
		})
	})

	Convey("Given a session whose duration is unknown", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		h.factory.last().events.Ready(mo.None[float64]())
		h.settle()

		Convey("Seeks are applied as given", func() {
			h.s.Seek(5000)
			h.settle()
			So(h.snap().Position, ShouldEqual, 5000)
		})
	})
}

func TestLateDuration(t *testing.T) {
	Convey("Given a session whose element became ready before reporting a duration", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		b := h.factory.last()
		b.events.Ready(mo.None[float64]())
		h.settle()
		So(h.snap().State, ShouldEqual, Ready)
		So(h.snap().Duration.IsPresent(), ShouldBeFalse)

		Convey("The late duration is published and bounds seeks", func() {
			b.events.DurationChange(1440)
			h.settle()
			So(h.snap().Duration.MustGet(), ShouldEqual, 1440)

			h.s.Seek(99999)
			h.settle()
			So(h.snap().Position, ShouldEqual, 1440)
			So(b.calls, ShouldContain, "seek 1440.0")
		})

		Convey("A duration from a replaced attachment is dropped", func() {
			h.s.ChangeQuality(source.Q480)
			h.settle()
			b.events.DurationChange(1440)
			h.settle()
			So(h.snap().Duration.IsPresent(), ShouldBeFalse)
		})
	})
}

func TestVolume(t *testing.T) {
	Convey("Given a ready session", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		b := h.factory.last()
		h.ready(b, 100)

		Convey("Volume is clamped", func() {
			h.s.SetVolume(1.7)
			h.settle()
			So(h.snap().Volume, ShouldEqual, 1)

			h.s.AdjustVolume(-1.5)
			h.settle()
			So(h.snap().Volume, ShouldEqual, 0)
			So(h.snap().Muted, ShouldBeTrue)
		})

		Convey("Mute round-trips to the exact volume", func() {
			h.s.SetVolume(0.6)
			h.s.ToggleMute()
			h.settle()
			So(h.snap().Volume, ShouldEqual, 0)
			So(h.snap().Muted, ShouldBeTrue)

			h.s.ToggleMute()
			h.settle()
			So(h.snap().Volume, ShouldEqual, 0.6)
			So(h.snap().Muted, ShouldBeFalse)
			So(b.calls[len(b.calls)-1], ShouldEqual, "volume 0.6")
		})

		Convey("Setting zero then unmuting matches a mute round-trip", func() {
			h.s.SetVolume(0.35)
			h.s.SetVolume(0)
			h.s.ToggleMute()
			h.settle()
			So(h.snap().Volume, ShouldEqual, 0.35)
		})

		Convey("Volume carries over to a new backend", func() {
			h.s.SetVolume(0.4)
			h.s.ChangeQuality(source.Q480)
			h.settle()
			next := h.factory.last()
			h.ready(next, 100)
			So(next.calls, ShouldContain, "volume 0.4")
		})
	})
}

func TestFullscreenRetryClose(t *testing.T) {
	Convey("Given a playing session", t, func() {
		h := newHarness()
		h.s.Initialize(progressive(), source.Q720)
		h.settle()
		b := h.playing(10)

		Convey("Fullscreen toggles through the backend", func() {
			h.s.ToggleFullscreen()
			h.settle()
			So(h.snap().Fullscreen, ShouldBeTrue)
		})

		Convey("A fullscreen failure changes nothing", func() {
			b.fullErr = errors.New("no window")
			h.s.ToggleFullscreen()
			h.settle()

			snap := h.snap()
			So(snap.Fullscreen, ShouldBeFalse)
			So(snap.State, ShouldEqual, Playing)
			So(snap.Err, ShouldBeNil)
		})

		Convey("Retry clears the error and reattaches the same quality", func() {
			b.events.Failed(player.NewError(player.DecodeError, ""))
			h.settle()
			So(h.snap().State, ShouldEqual, Errored)

			h.s.Retry()
			h.settle()

			snap := h.snap()
			So(snap.State, ShouldEqual, Loading)
			So(snap.Err, ShouldBeNil)
			So(b.attached, ShouldBeFalse)
			So(h.factory.live, ShouldEqual, 1)
			So(h.factory.last().url, ShouldEqual, "https://cdn/ep3-720.mp4")

			h.ready(h.factory.last(), 100)
			So(h.snap().State, ShouldEqual, Ready)
		})

		Convey("Close releases the backend and ignores later commands", func() {
			h.s.Close()
			h.settle()

			So(h.snap().State, ShouldEqual, Closed)
			So(h.factory.live, ShouldEqual, 0)

			done := false
			select {
			case <-h.s.Done():
				done = true
			default:
			}
			So(done, ShouldBeTrue)

			h.s.Play()
			h.s.ChangeQuality(source.Q360)
			h.settle()
			So(h.snap().State, ShouldEqual, Closed)
			So(h.factory.backends, ShouldHaveLength, 1)
		})
	})
}
