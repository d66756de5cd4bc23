package session

import (
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/player"
	"github.com/samber/mo"
)

// Everything in this file except post and events runs on the worker.

// attach replaces the live backend with a new one for gen. A generation that
// was superseded before or during the attach never stays attached.
func (s *Session) attach(gen uint64, kind player.Kind, url string) {
	s.detachLive()

	if s.gen.Load() != gen {
		log.Debugf("skipping attach for superseded generation %d", gen)
		return
	}

	backend, err := s.factory.New(kind)
	if err != nil {
		s.post(gen, func() { s.fail(player.AsError(err), EvFail) })
		return
	}

	err = backend.Attach(url, s.events(gen))

	if s.gen.Load() != gen {
		log.Debugf("generation %d superseded while attaching, releasing", gen)
		s.release(backend)
		return
	}

	if err != nil {
		s.release(backend)
		s.post(gen, func() { s.fail(player.AsError(err), EvFail) })
		return
	}

	s.live = backend
	s.liveGen = gen
}

func (s *Session) detachLive() {
	if s.live == nil {
		return
	}

	s.release(s.live)
	s.live = nil
}

func (s *Session) release(backend player.Backend) {
	if err := backend.Detach(); err != nil {
		log.Warnf("detaching %s backend: %v", backend.Kind(), err)
	}
}

// command queues a call on the live backend of the current generation.
// done, when given, runs on the control loop unless the generation moved on.
func (s *Session) command(name string, do func(player.Backend) error, done func(error)) {
	gen := s.gen.Load()

	s.worker.Post(func() {
		if s.live == nil || s.liveGen != gen {
			log.Debugf("dropping %s for generation %d", name, gen)
			return
		}

		err := do(s.live)
		if err != nil && done == nil {
			log.Warnf("%s: %v", name, err)
		}

		if done != nil {
			s.post(gen, func() { done(err) })
		}
	})
}

// post schedules fn on the control loop, discarding it if gen is stale by then.
func (s *Session) post(gen uint64, fn func()) {
	s.loop.Post(func() {
		if s.gen.Load() != gen {
			return
		}
		fn()
	})
}

func (s *Session) events(gen uint64) player.Events {
	return player.Events{
		Ready: func(duration mo.Option[float64]) {
			s.post(gen, func() { s.onReady(duration) })
		},
		DurationChange: func(duration float64) {
			s.post(gen, func() { s.onDurationChange(duration) })
		},
		TimeUpdate: func(position float64) {
			s.post(gen, func() { s.onTimeUpdate(position) })
		},
		Ended: func() {
			s.post(gen, s.onEnded)
		},
		Failed: func(err *player.Error) {
			s.post(gen, func() { s.fail(err, EvFail) })
		},
	}
}
