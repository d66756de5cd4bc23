package tui

import (
	"errors"
	"testing"

	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type stubBackend struct {
	kind  player.Kind
	url   string
	calls []string
}

func (b *stubBackend) Kind() player.Kind { return b.kind }

func (b *stubBackend) Attach(url string, events player.Events) error {
	b.url = url
	events.Ready(mo.Some(100.0))
	return nil
}

func (b *stubBackend) Detach() error { return nil }

func (b *stubBackend) Play() error {
	b.calls = append(b.calls, "play")
	return nil
}

func (b *stubBackend) Pause() error {
	b.calls = append(b.calls, "pause")
	return nil
}

func (b *stubBackend) Seek(float64) error { return nil }

func (b *stubBackend) SetVolume(float64) error { return nil }

func (b *stubBackend) SetFullscreen(bool) error { return nil }

type stubFactory struct {
	backends []*stubBackend
}

func (f *stubFactory) New(kind player.Kind) (player.Backend, error) {
	b := &stubBackend{kind: kind}
	f.backends = append(f.backends, b)
	return b, nil
}

type fixture struct {
	loop, worker *session.ManualLoop
	factory      *stubFactory
	bubble       *statefulBubble
}

func (f *fixture) settle() {
	for f.loop.Len()+f.worker.Len() > 0 {
		f.loop.Drain()
		f.worker.Drain()
	}
}

func (f *fixture) press(k tea.KeyMsg) {
	f.bubble.Update(k)
	f.settle()
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func episode(n int, qualities ...source.Quality) *source.Episode {
	urls := map[source.Quality]string{source.Q360: "", source.Q480: "", source.Q720: ""}
	for _, q := range qualities {
		urls[q] = "https://cdn/ep-" + string(q) + ".mp4"
	}
	return &source.Episode{EpsNumber: n, URL: urls}
}

func newFixture() *fixture {
	terminalSize = func() (int, int, error) { return 0, 0, errors.New("no terminal") }

	f := &fixture{
		loop:    session.NewManualLoop(),
		worker:  session.NewManualLoop(),
		factory: &stubFactory{},
	}

	f.bubble = newBubble(&Options{
		Title:    "Crash Landing",
		Episodes: []*source.Episode{episode(1, source.Q720), episode(2, source.Q480, source.Q720), episode(3)},
		Quality:  source.Q720,
		NewSession: func() *session.Session {
			return session.New(session.Options{Factory: f.factory, Loop: f.loop, Worker: f.worker})
		},
	})
	f.bubble.resize(100, 40)
	return f
}

func TestQualityKeys(t *testing.T) {
	Convey("The number row maps to tiers", t, func() {
		q, ok := qualityForKey("1")
		So(ok, ShouldBeTrue)
		So(q, ShouldEqual, source.Q360)

		q, _ = qualityForKey("3")
		So(q, ShouldEqual, source.Q720)

		_, ok = qualityForKey("4")
		So(ok, ShouldBeFalse)
	})

	Convey("Cycling walks the available tiers and wraps", t, func() {
		available := []source.Quality{source.Q480, source.Q720}

		q, _ := nextQuality(available, source.Q480)
		So(q, ShouldEqual, source.Q720)

		q, _ = nextQuality(available, source.Q720)
		So(q, ShouldEqual, source.Q480)

		q, _ = nextQuality(available, source.Q360)
		So(q, ShouldEqual, source.Q480)

		_, ok := nextQuality(nil, source.Q720)
		So(ok, ShouldBeFalse)
	})
}

func TestListItem(t *testing.T) {
	Convey("Episode items describe their tiers", t, func() {
		item := &listItem{episode: episode(4, source.Q360, source.Q720)}
		So(item.Title(), ShouldEqual, "Episode 4")
		So(item.Description(), ShouldContainSubstring, "360p")
		So(item.Description(), ShouldContainSubstring, "720p")
		So(item.Description(), ShouldNotContainSubstring, "480p")

		empty := &listItem{episode: episode(5)}
		So(empty.Description(), ShouldContainSubstring, "no sources")
	})
}

func TestKeymapHelp(t *testing.T) {
	Convey("Help follows the state", t, func() {
		k := newStatefulKeymap()
		k.setState(episodesState)
		So(k.ShortHelp(), ShouldContain, k.confirm)

		k.setState(watchState)
		So(k.ShortHelp(), ShouldContain, k.playPause)
		So(k.FullHelp()[0], ShouldContain, k.cycleQuality)
	})
}

func TestWatch(t *testing.T) {
	Convey("Given the episode list", t, func() {
		f := newFixture()
		b := f.bubble
		So(b.state, ShouldEqual, episodesState)
		So(b.episodesC.Items(), ShouldHaveLength, 3)

		Convey("Enter starts a session for the selected episode", func() {
			f.press(tea.KeyMsg{Type: tea.KeyEnter})

			So(b.state, ShouldEqual, watchState)
			So(b.session, ShouldNotBeNil)
			So(b.current.EpsNumber, ShouldEqual, 1)
			So(b.session.Snapshot().State, ShouldEqual, session.Ready)
			So(b.watched[1], ShouldBeTrue)

			Convey("Space toggles playback", func() {
				f.press(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
				So(b.session.Snapshot().Playing, ShouldBeTrue)

				f.press(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
				So(b.session.Snapshot().Playing, ShouldBeFalse)
			})

			Convey("Volume keys step by a tenth", func() {
				f.press(runes("-"))
				So(b.session.Snapshot().Volume, ShouldAlmostEqual, 0.9)

				f.press(runes("m"))
				So(b.session.Snapshot().Muted, ShouldBeTrue)
			})

			Convey("Next moves to the following episode with a new session", func() {
				first := b.session
				f.press(runes("n"))

				So(b.current.EpsNumber, ShouldEqual, 2)
				So(b.session, ShouldNotEqual, first)
				So(first.Snapshot().State, ShouldEqual, session.Closed)
				So(b.session.Snapshot().Quality, ShouldEqual, source.Q720)
			})

			Convey("Previous at the first episode does nothing", func() {
				first := b.session
				f.press(runes("p"))
				So(b.session, ShouldEqual, first)
			})

			Convey("Picking a missing tier shows the error overlay", func() {
				f.press(runes("1"))

				snap := b.session.Snapshot()
				So(snap.State, ShouldEqual, session.Errored)
				So(snap.Error.Kind, ShouldEqual, "SourceUnavailable")

				b.snapshot = snap
				So(b.View(), ShouldContainSubstring, "press r to retry")
			})

			Convey("Escape closes the session and returns to the list", func() {
				s := b.session
				f.press(tea.KeyMsg{Type: tea.KeyEsc})

				So(b.state, ShouldEqual, episodesState)
				So(b.session, ShouldBeNil)
				So(s.Snapshot().State, ShouldEqual, session.Closed)
			})

			Convey("Snapshots from a replaced session are ignored", func() {
				stale := b.session
				f.press(runes("n"))

				b.Update(snapshotMsg{session: stale, snapshot: session.Snapshot{Episode: 99}})
				So(b.snapshot.Episode, ShouldNotEqual, 99)
			})
		})

		Convey("The watch view renders the timeline once ready", func() {
			f.press(tea.KeyMsg{Type: tea.KeyEnter})
			b.snapshot = b.session.Snapshot()

			view := b.View()
			So(view, ShouldContainSubstring, "Episode 1")
			So(view, ShouldContainSubstring, "1:40")
			So(view, ShouldContainSubstring, "native-progressive")
		})
	})
}
