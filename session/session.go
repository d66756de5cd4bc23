// Package session implements the playback session controller.
//
// A Session owns one episode's playback: it resolves the source for the
// selected quality, attaches exactly one backend at a time and turns user
// commands and backend signals into state transitions. State is only touched
// on the control loop; backend calls, which may block, run in order on a
// separate worker so the control loop never waits on them.
//
// Every attachment is tagged with a generation number. Tearing a backend
// down bumps the generation first, so signals from a superseded backend are
// dropped no matter how late they arrive.
package session

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/util"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

var errFullscreenUnavailable = errors.New("fullscreen is not available for this player")

type Options struct {
	Factory player.Factory
	// Loop runs state changes and callbacks. Defaults to a new EventLoop.
	Loop Loop
	// Worker runs backend calls in issue order. Defaults to a new EventLoop.
	Worker Loop
	// Volume is the starting volume in [0, 1]. Defaults to 1.
	Volume mo.Option[float64]
}

type resumePoint struct {
	position float64
	playing  bool
}

type Session struct {
	loop    Loop
	worker  Loop
	factory player.Factory
	gen     atomic.Uint64

	// control loop
	state       State
	episode     source.Episode
	quality     source.Quality
	kind        player.Kind
	playing     bool
	intent      bool
	position    float64
	duration    mo.Option[float64]
	volume      float64
	preMute     float64
	muted       bool
	fullscreen  bool
	err         *player.Error
	resume      mo.Option[resumePoint]
	subscribers []func(Snapshot)

	// worker
	live    player.Backend
	liveGen uint64

	current   atomic.Pointer[Snapshot]
	done      chan struct{}
	closeOnce sync.Once
}

func New(opts Options) *Session {
	s := &Session{
		loop:    opts.Loop,
		worker:  opts.Worker,
		factory: opts.Factory,
		state:   Idle,
		quality: source.DefaultQuality,
		volume:  util.Clamp(opts.Volume.OrElse(1), 0, 1),
		done:    make(chan struct{}),
	}

	if s.loop == nil {
		s.loop = NewEventLoop()
	}
	if s.worker == nil {
		s.worker = NewEventLoop()
	}

	s.muted = s.volume == 0
	s.preMute = 1

	snap := s.snapshot()
	s.current.Store(&snap)
	return s
}

// Snapshot returns the latest published state. Safe from any goroutine.
func (s *Session) Snapshot() Snapshot {
	return *s.current.Load()
}

// Subscribe registers fn for every published snapshot, starting with the current one.
// fn runs on the control loop and must not block.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.loop.Post(func() {
		s.subscribers = append(s.subscribers, fn)
		fn(s.Snapshot())
	})
}

// Done is closed once the session is closed and its backend released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Initialize starts playback of episode at quality. An invalid quality means the default.
func (s *Session) Initialize(episode source.Episode, quality source.Quality) {
	s.loop.Post(func() { s.initialize(episode, quality) })
}

func (s *Session) Play() { s.loop.Post(func() { s.play() }) }
func (s *Session) Pause() { s.loop.Post(func() { s.pause() }) }
func (s *Session) Seek(seconds float64) { s.loop.Post(func() { s.seek(seconds) }) }
func (s *Session) SetVolume(level float64) { s.loop.Post(func() { s.setVolume(level) }) }
func (s *Session) ToggleMute() { s.loop.Post(func() { s.toggleMute() }) }
func (s *Session) ChangeQuality(quality source.Quality) { s.loop.Post(func() { s.changeQuality(quality) }) }
func (s *Session) Retry() { s.loop.Post(func() { s.retry() }) }
func (s *Session) ToggleFullscreen() { s.loop.Post(func() { s.toggleFullscreen() }) }
func (s *Session) Close() { s.loop.Post(func() { s.close() }) }

// TogglePlay plays when paused and pauses when playing, going by the latest intent.
func (s *Session) TogglePlay() {
	s.loop.Post(func() {
		if s.intent {
			s.pause()
		} else {
			s.play()
		}
	})
}

// SeekBy seeks relative to the current position.
func (s *Session) SeekBy(delta float64) {
	s.loop.Post(func() { s.seek(s.position + delta) })
}

// AdjustVolume changes the volume relative to the current level.
func (s *Session) AdjustVolume(delta float64) {
	s.loop.Post(func() { s.setVolume(s.volume + delta) })
}

func (s *Session) initialize(episode source.Episode, quality source.Quality) {
	if !s.fire(EvInitialize) {
		return
	}

	if !quality.Valid() {
		quality = source.DefaultQuality
	}

	s.episode = episode
	s.quality = quality
	s.load()
}

// load tears down whatever is attached, resolves the current quality and
// queues the attach. The caller has already moved to Resolving or QualityChangePending.
func (s *Session) load() {
	gen := s.teardown()

	res := s.episode.Resolve(s.quality)
	s.kind = player.KindFor(res)
	s.duration = mo.None[float64]()

	entry := log.WithFields(logrus.Fields{
		"episode":  s.episode.EpsNumber,
		"quality":  s.quality.String(),
		"strategy": res.Strategy.String(),
		"gen":      gen,
	})

	switch res.Strategy {
	case source.NoSource:
		entry.Warnf("no source")
		s.fail(player.NewError(player.SourceUnavailable, s.quality.String()), EvNoSource)
		return
	case source.Embedded:
		entry.Infof("attaching embedded player")
		s.fire(EvResolvedEmbedded)
		// an opaque player cannot resume anything
		s.resume = mo.None[resumePoint]()
		s.playing = false
		s.intent = false
	default:
		entry.Infof("attaching %s backend", s.kind)
		s.fire(EvResolvedDirect)
	}

	kind, url := s.kind, res.URL
	s.worker.Post(func() { s.attach(gen, kind, url) })
	s.publish()
}

// teardown supersedes the current attachment and queues its release.
func (s *Session) teardown() uint64 {
	gen := s.gen.Add(1)
	s.worker.Post(s.detachLive)
	return gen
}

func (s *Session) onReady(duration mo.Option[float64]) {
	if !s.state.Loading() {
		// embedded players are ready from the moment they resolve
		return
	}

	s.duration = duration
	if !s.fire(EvReady) {
		return
	}

	level := s.volume
	s.command("volume", func(b player.Backend) error { return b.SetVolume(level) }, nil)

	if r, ok := s.resume.Get(); ok {
		s.resume = mo.None[resumePoint]()
		s.position = s.clamp(r.position)
		if s.position > 0 {
			pos := s.position
			s.command("seek", func(b player.Backend) error { return b.Seek(pos) }, nil)
		}

		s.intent = r.playing
		if r.playing {
			s.requestPlay()
		} else {
			s.playing = false
		}
	}

	s.publish()
}

// onDurationChange applies a duration the element learned after ready.
// While loading, Ready carries it instead.
func (s *Session) onDurationChange(duration float64) {
	if s.state.Loading() || !s.state.Open() {
		return
	}

	if d, ok := s.duration.Get(); ok && d == duration {
		return
	}
	s.duration = mo.Some(duration)
	s.publish()
}

func (s *Session) onTimeUpdate(position float64) {
	prev := s.position
	s.position = position

	// the backend reports many times a second; subscribers only need whole seconds
	if math.Floor(prev) != math.Floor(position) {
		s.publish()
	}
}

func (s *Session) onEnded() {
	s.playing = false
	s.intent = false
	s.fire(EvEnded)
	s.publish()
}

func (s *Session) play() {
	if !s.acceptsTransport() {
		return
	}

	s.intent = true
	if s.state.Loading() {
		s.setResumePlaying(true)
		return
	}

	s.requestPlay()
}

func (s *Session) requestPlay() {
	if s.kind == player.KindEmbedded {
		return
	}

	s.command("play", func(b player.Backend) error { return b.Play() }, func(err error) {
		if err != nil {
			perr := player.AsError(err)
			if perr.Kind != player.PlaybackRejected {
				perr = player.NewError(player.PlaybackRejected, err.Error())
			}
			s.intent = false
			s.fail(perr, EvFail)
			return
		}
		s.settle()
	})
}

func (s *Session) pause() {
	if !s.acceptsTransport() {
		return
	}

	s.intent = false
	if s.state.Loading() {
		s.setResumePlaying(false)
		return
	}

	if s.kind == player.KindEmbedded {
		return
	}

	s.command("pause", func(b player.Backend) error { return b.Pause() }, func(err error) {
		if err != nil {
			log.Warnf("pause failed: %v", err)
			return
		}
		s.settle()
	})
}

// settle applies a transport confirmation. The flag follows the latest
// intent rather than the confirmed command, so the last request wins.
func (s *Session) settle() {
	if s.state.Loading() || s.state == Errored {
		return
	}

	s.playing = s.intent
	if s.playing {
		s.fire(EvPlaying)
	} else {
		s.fire(EvPaused)
	}
	s.publish()
}

func (s *Session) seek(seconds float64) {
	if !s.acceptsTransport() {
		return
	}

	seconds = s.clamp(seconds)
	s.position = seconds

	if s.state.Loading() {
		r := s.resume.OrElse(resumePoint{playing: s.intent})
		r.position = seconds
		s.resume = mo.Some(r)
		s.publish()
		return
	}

	if s.kind != player.KindEmbedded {
		s.command("seek", func(b player.Backend) error { return b.Seek(seconds) }, nil)
	}
	s.publish()
}

func (s *Session) setVolume(level float64) {
	if !s.state.Open() {
		return
	}

	level = util.Clamp(level, 0, 1)
	if level == 0 && s.volume > 0 {
		s.preMute = s.volume
	}

	s.volume = level
	s.muted = level == 0

	s.command("volume", func(b player.Backend) error { return b.SetVolume(level) }, nil)
	s.publish()
}

func (s *Session) toggleMute() {
	if !s.muted {
		s.setVolume(0)
		return
	}

	restore := s.preMute
	if restore == 0 {
		restore = 1
	}
	s.setVolume(restore)
}

func (s *Session) changeQuality(quality source.Quality) {
	if !s.state.Open() {
		return
	}

	if !quality.Valid() {
		log.Warnf("ignoring unknown quality %q", quality)
		return
	}

	if s.state == QualityChangePending && quality == s.quality {
		return
	}

	// capture strictly before teardown; a pending change keeps the original capture
	if s.resume.IsAbsent() {
		s.resume = mo.Some(resumePoint{position: s.position, playing: s.intent})
	}

	if !s.fire(EvQualityChange) {
		return
	}

	log.Infof("changing quality from %s to %s", s.quality, quality)
	s.quality = quality
	s.err = nil
	s.load()
}

func (s *Session) retry() {
	if !s.fire(EvRetry) {
		return
	}

	s.err = nil
	s.load()
}

func (s *Session) toggleFullscreen() {
	if !s.state.Open() {
		return
	}

	target := !s.fullscreen
	gen := s.gen.Load()
	s.worker.Post(func() {
		err := errFullscreenUnavailable
		if fs, ok := s.live.(player.Fullscreener); ok && s.liveGen == gen {
			err = fs.SetFullscreen(target)
		}

		s.loop.Post(func() {
			if err != nil {
				log.Warnf("fullscreen: %v", err)
				return
			}
			s.fullscreen = target
			s.publish()
		})
	})
}

func (s *Session) close() {
	if !s.fire(EvClose) {
		return
	}

	s.gen.Add(1)
	s.playing = false
	s.intent = false
	s.publish()

	s.worker.Post(func() {
		s.detachLive()
		s.closeOnce.Do(func() { close(s.done) })
	})
}

func (s *Session) fail(err *player.Error, ev Event) {
	if !s.fire(ev) {
		return
	}

	s.err = err
	log.WithFields(logrus.Fields{
		"kind":    err.Kind.String(),
		"quality": s.quality.String(),
	}).Warnf("playback error: %s", err)
	s.publish()
}

func (s *Session) fire(ev Event) bool {
	tr, ok := TransitionFor(s.state, ev)
	if !ok {
		log.WithFields(logrus.Fields{"state": s.state, "event": ev}).Warnf("refusing illegal transition")
		return false
	}

	if tr.To != s.state {
		log.Debugf("session %s -> %s on %s", s.state, tr.To, ev)
	}
	s.state = tr.To
	return true
}

func (s *Session) publish() {
	snap := s.snapshot()
	s.current.Store(&snap)

	for _, fn := range s.subscribers {
		fn(snap)
	}
}

// acceptsTransport reports whether play, pause and seek are meaningful now.
func (s *Session) acceptsTransport() bool {
	return s.state.Open() && s.state != Errored
}

func (s *Session) setResumePlaying(playing bool) {
	r := s.resume.OrElse(resumePoint{position: s.position})
	r.playing = playing
	s.resume = mo.Some(r)
}

func (s *Session) clamp(seconds float64) float64 {
	if d, ok := s.duration.Get(); ok {
		return util.Clamp(seconds, 0, d)
	}
	// negative absolute seeks mean "from the end" to some players
	return math.Max(seconds, 0)
}
