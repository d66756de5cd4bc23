package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
)

// snapshotQueue hands snapshots from the control loop to the writer in order.
// Pushing never blocks and nothing is dropped, however far the writer falls behind.
type snapshotQueue struct {
	mu      sync.Mutex
	pending []session.Snapshot
	notify  chan struct{}
}

func newSnapshotQueue() *snapshotQueue {
	return &snapshotQueue{notify: make(chan struct{}, 1)}
}

func (q *snapshotQueue) push(snap session.Snapshot) {
	q.mu.Lock()
	q.pending = append(q.pending, snap)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *snapshotQueue) take() []session.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.pending
	q.pending = nil
	return pending
}

type headlessCommand struct {
	name    string
	value   float64
	quality source.Quality
}

// parseCommand reads one line of the headless protocol.
func parseCommand(line string) (headlessCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return headlessCommand{}, fmt.Errorf("empty command")
	}

	cmd := headlessCommand{name: fields[0]}
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("%s takes exactly one argument", cmd.name)
		}
		return fields[1], nil
	}

	switch cmd.name {
	case "play", "pause", "toggle", "mute", "fullscreen", "retry", "quit":
		if len(fields) != 1 {
			return headlessCommand{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "seek", "volume":
		raw, err := arg()
		if err != nil {
			return headlessCommand{}, err
		}
		cmd.value, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return headlessCommand{}, fmt.Errorf("%s: %w", cmd.name, err)
		}
	case "quality":
		raw, err := arg()
		if err != nil {
			return headlessCommand{}, err
		}
		cmd.quality, err = source.ParseQuality(raw)
		if err != nil {
			return headlessCommand{}, err
		}
	default:
		return headlessCommand{}, fmt.Errorf("unknown command %q", cmd.name)
	}

	return cmd, nil
}

func (c headlessCommand) apply(s *session.Session) {
	switch c.name {
	case "play":
		s.Play()
	case "pause":
		s.Pause()
	case "toggle":
		s.TogglePlay()
	case "seek":
		s.Seek(c.value)
	case "volume":
		s.SetVolume(c.value)
	case "mute":
		s.ToggleMute()
	case "quality":
		s.ChangeQuality(c.quality)
	case "fullscreen":
		s.ToggleFullscreen()
	case "retry":
		s.Retry()
	case "quit":
		s.Close()
	}
}

// runHeadless writes every snapshot of s as a JSON line to out and applies
// commands read line by line from in. It returns once the session is closed,
// which happens on "quit" or when in is exhausted.
func runHeadless(s *session.Session, in io.Reader, out io.Writer) error {
	queue := newSnapshotQueue()
	s.Subscribe(queue.push)

	go func() {
		defer s.Close()

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			cmd, err := parseCommand(line)
			if err != nil {
				log.Warnf("headless: %v", err)
				continue
			}

			cmd.apply(s)
			if cmd.name == "quit" {
				return
			}
		}
	}()

	encoder := json.NewEncoder(out)
	write := func(snaps []session.Snapshot) error {
		for _, snap := range snaps {
			if err := encoder.Encode(snap); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
		}
		return nil
	}

	for {
		select {
		case <-queue.notify:
			if err := write(queue.take()); err != nil {
				s.Close()
				return err
			}
		case <-s.Done():
			// closed is published before done, so it is already queued
			return write(queue.take())
		}
	}
}
