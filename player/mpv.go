package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV is a MediaElement backed by an idle mpv process controlled over JSON-IPC.
// The process is started lazily on the first Load and reused afterwards.
type MPV struct {
	// Path to the mpv binary.
	Path string
	// NativeHLS reports whether HLS manifests are handed to mpv directly.
	NativeHLS bool
	// Title is shown in the mpv window.
	Title string

	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	mu         sync.Mutex // serializes IPC commands

	stateMu  sync.Mutex
	listener *ElementListener
	events   *EventListener
	// entry is the playlist entry mpv started for the current load, 0 until known.
	entry  float64
	loaded bool
}

func NewMPV(path string, nativeHLS bool) *MPV {
	if path == "" {
		path = "mpv"
	}

	return &MPV{
		Path:      path,
		NativeHLS: nativeHLS,
		Title:     constant.Dramaplay,
	}
}

// CanPlayType reports native support. mpv decodes progressive containers
// unconditionally; HLS support is a configuration choice.
func (m *MPV) CanPlayType(mime string) bool {
	switch mime {
	case constant.MimeHLS:
		return m.NativeHLS
	case constant.MimeMP4, constant.MimeTS:
		return true
	default:
		return false
	}
}

func (m *MPV) Load(rawURL string, listener ElementListener) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if !m.running() {
		if err := m.start(); err != nil {
			return err
		}
	}

	if err := m.listen(); err != nil {
		return err
	}

	m.setListener(&listener)

	// loaded media waits for an explicit play
	if _, err := m.sendCommand("set_property", "pause", true); err != nil {
		return err
	}

	if _, err := m.sendCommand("loadfile", target, "replace"); err != nil {
		m.setListener(nil)
		return err
	}

	return nil
}

func (m *MPV) Unload() error {
	m.setListener(nil)

	if !m.running() {
		return nil
	}

	_, err := m.sendCommand("stop")
	return err
}

func (m *MPV) Play() error {
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

func (m *MPV) Seek(seconds float64) error {
	if !m.running() {
		return errors.New("mpv is not running")
	}

	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

// SetVolume maps [0, 1] onto mpv's 0..100 scale.
func (m *MPV) SetVolume(level float64) error {
	return m.set("volume", level*100)
}

func (m *MPV) SetFullscreen(on bool) error {
	return m.set("fullscreen", on)
}

// Close quits mpv, killing it if it does not exit in time, and removes the socket.
func (m *MPV) Close() error {
	m.setListener(nil)

	m.stateMu.Lock()
	events := m.events
	m.events = nil
	m.stateMu.Unlock()

	if events != nil {
		events.Stop()
	}

	if m.socketPath == "" || m.cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		log.Warn("mpv did not quit in time, killing it")
		_ = killProcess(m.cmd)
	}

	removeIPC(m.socketPath)
	m.cmd = nil
	return nil
}

func (m *MPV) set(property string, value any) error {
	if !m.running() {
		return errors.New("mpv is not running")
	}

	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) running() bool {
	if m.socketPath == "" || m.exited == nil {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

func (m *MPV) setListener(l *ElementListener) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.listener = l
	m.entry = 0
	m.loaded = false
}

// claimEntry records the first entry started after a load. The replaced file's
// end-file arrives before it, so that one is never attributed to this load.
func (m *MPV) claimEntry(id float64) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.listener != nil && m.entry == 0 {
		m.entry = id
	}
}

func (m *MPV) markLoaded() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.loaded = true
}

// interrupted reports whether entry is the current load and has not loaded yet.
func (m *MPV) interrupted(entry float64) bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.entry != 0 && entry == m.entry && !m.loaded
}

func (m *MPV) currentListener() *ElementListener {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.listener
}

func (m *MPV) listen() error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.events != nil {
		return nil
	}

	events := NewEventListener(m.socketPath, m.dispatch)
	if err := events.Start(); err != nil {
		return err
	}

	m.events = events
	return nil
}

// start spawns an idle mpv and waits for its IPC socket.
func (m *MPV) start() error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = ipcEndpoint(fmt.Sprintf("%s-%x", constant.Dramaplay, randomBytes))

	// user mpv.conf stays in charge of video output and decoding
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--title=%s", sanitizeTitle(m.Title)),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=no",
	}

	m.cmd = exec.Command(m.Path, args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	m.exited = exited
	cmd := m.cmd
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = cmd.Process.Kill()
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	log.Infof("mpv started with socket %s", m.socketPath)
	return nil
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := dialIPC(m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// dispatch turns mpv events into element signals for the current load.
func (m *MPV) dispatch(name string, data any) {
	l := m.currentListener()
	if l == nil {
		return
	}

	switch name {
	case "duration":
		if d, ok := data.(float64); ok && l.Metadata != nil {
			l.Metadata(d)
		}
	case "time-pos":
		if pos, ok := data.(float64); ok && l.TimeUpdate != nil {
			l.TimeUpdate(pos)
		}
	case "start-file":
		event, _ := data.(map[string]any)
		if id, ok := event["playlist_entry_id"].(float64); ok {
			m.claimEntry(id)
		}
	case "file-loaded":
		m.markLoaded()
		if l.DataReady != nil {
			l.DataReady()
		}
	case "end-file":
		event, _ := data.(map[string]any)
		reason, _ := event["reason"].(string)
		switch reason {
		case "stop", "redirect":
			id, _ := event["playlist_entry_id"].(float64)
			if m.interrupted(id) && l.Error != nil {
				l.Error(MediaErrAborted, "load interrupted: "+reason)
			}
		case "eof":
			if l.Ended != nil {
				l.Ended()
			}
		case "error":
			fileError, _ := event["file_error"].(string)
			if l.Error != nil {
				l.Error(mediaErrorCode(fileError), fileError)
			}
		case "quit":
			if l.Error != nil {
				l.Error(MediaErrAborted, "player closed")
			}
		}
	}
}

func mediaErrorCode(fileError string) MediaErrorCode {
	switch fileError {
	case "loading failed":
		return MediaErrNetwork
	case "unrecognized file format":
		return MediaErrSrcNotSupported
	default:
		return MediaErrDecode
	}
}

// sanitizeMediaTarget rejects targets that mpv could read as flags.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
