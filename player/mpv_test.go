package player

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dramaplay/dramaplay/constant"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeIPC answers every command with success and records what it received.
type fakeIPC struct {
	mu       sync.Mutex
	commands [][]any
	ln       net.Listener
}

func newFakeIPC(t *testing.T) *fakeIPC {
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeIPC{ln: ln}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeIPC) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}

		go func(conn net.Conn) {
			defer conn.Close()
			scanner := bufio.NewScanner(conn)
			for scanner.Scan() {
				var cmd ipcCommand
				if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
					return
				}

				f.mu.Lock()
				f.commands = append(f.commands, cmd.Command)
				f.mu.Unlock()

				reply := `{"error":"success","data":null}`
				if len(cmd.Command) > 0 && cmd.Command[0] == "seek" && cmd.Command[1] == float64(-1) {
					reply = `{"error":"invalid parameter"}`
				}
				// an unrelated broadcast event first, as mpv does
				_, _ = conn.Write([]byte(`{"event":"idle"}` + "\n" + reply + "\n"))
			}
		}(conn)
	}
}

func (f *fakeIPC) last() []any {
	f.mu.Lock()
	defer f.mu.Unlock()

	// observations arrive on their own connection, in any order
	for i := len(f.commands) - 1; i >= 0; i-- {
		if f.commands[i][0] != "observe_property" {
			return f.commands[i]
		}
	}
	return nil
}

func runningMPV(f *fakeIPC) *MPV {
	m := NewMPV("", true)
	m.socketPath = f.ln.Addr().String()
	m.exited = make(chan struct{})
	return m
}

func TestMPVCommands(t *testing.T) {
	Convey("Given an mpv element on a live socket", t, func() {
		f := newFakeIPC(t)
		m := runningMPV(f)

		Convey("Volume is scaled to mpv's range", func() {
			So(m.SetVolume(0.5), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"set_property", "volume", float64(50)})
		})

		Convey("Play and pause toggle the pause property", func() {
			So(m.Play(), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"set_property", "pause", false})
			So(m.Pause(), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"set_property", "pause", true})
		})

		Convey("Seeks are absolute", func() {
			So(m.Seek(42), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"seek", float64(42), "absolute"})
		})

		Convey("mpv errors are returned without retrying", func() {
			So(m.Seek(-1), ShouldNotBeNil)
		})

		Convey("Load pauses and replaces the current file", func() {
			So(m.Load("https://cdn/x.mp4", ElementListener{}), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"loadfile", "https://cdn/x.mp4", "replace"})
			So(m.Close(), ShouldBeNil)
		})

		Convey("Unload stops playback", func() {
			So(m.Unload(), ShouldBeNil)
			So(f.last(), ShouldResemble, []any{"stop"})
		})
	})

	Convey("Given an mpv element that never started", t, func() {
		m := NewMPV("", false)

		Convey("Controls fail", func() {
			So(m.Play(), ShouldNotBeNil)
			So(m.Seek(1), ShouldNotBeNil)
		})

		Convey("Unload and close are no-ops", func() {
			So(m.Unload(), ShouldBeNil)
			So(m.Close(), ShouldBeNil)
		})

		Convey("HLS support follows configuration", func() {
			So(m.CanPlayType(constant.MimeHLS), ShouldBeFalse)
			So(m.CanPlayType(constant.MimeMP4), ShouldBeTrue)
			So(NewMPV("", true).CanPlayType(constant.MimeHLS), ShouldBeTrue)
		})
	})
}

func TestMPVDispatch(t *testing.T) {
	Convey("Given an mpv element with a listener", t, func() {
		m := NewMPV("", true)

		var (
			duration float64
			position float64
			ready    int
			ended    int
			codes    []MediaErrorCode
		)

		m.setListener(&ElementListener{
			Metadata:   func(d float64) { duration = d },
			DataReady:  func() { ready++ },
			TimeUpdate: func(p float64) { position = p },
			Ended:      func() { ended++ },
			Error:      func(c MediaErrorCode, _ string) { codes = append(codes, c) },
		})

		Convey("Properties and events are translated", func() {
			m.dispatch("duration", 1440.5)
			m.dispatch("time-pos", 12.25)
			m.dispatch("file-loaded", map[string]any{"event": "file-loaded"})
			m.dispatch("end-file", map[string]any{"reason": "eof"})

			So(duration, ShouldEqual, 1440.5)
			So(position, ShouldEqual, 12.25)
			So(ready, ShouldEqual, 1)
			So(ended, ShouldEqual, 1)
		})

		Convey("Load errors map to media error codes", func() {
			m.dispatch("end-file", map[string]any{"reason": "error", "file_error": "loading failed"})
			m.dispatch("end-file", map[string]any{"reason": "error", "file_error": "unrecognized file format"})
			m.dispatch("end-file", map[string]any{"reason": "error", "file_error": "audio output initialization failed"})
			m.dispatch("end-file", map[string]any{"reason": "quit"})

			So(codes, ShouldResemble, []MediaErrorCode{MediaErrNetwork, MediaErrSrcNotSupported, MediaErrDecode, MediaErrAborted})
		})

		Convey("Stops of the replaced file and unknown values are ignored", func() {
			m.dispatch("end-file", map[string]any{"reason": "stop", "playlist_entry_id": 1.0})
			m.dispatch("start-file", map[string]any{"playlist_entry_id": 2.0})
			m.dispatch("end-file", map[string]any{"reason": "redirect", "playlist_entry_id": 1.0})
			m.dispatch("duration", nil)
			So(codes, ShouldBeEmpty)
			So(duration, ShouldEqual, 0)
		})

		Convey("A stop or redirect of the loading entry aborts the load", func() {
			m.dispatch("start-file", map[string]any{"playlist_entry_id": 2.0})
			m.dispatch("end-file", map[string]any{"reason": "stop", "playlist_entry_id": 2.0})
			So(codes, ShouldResemble, []MediaErrorCode{MediaErrAborted})

			Convey("while the same entry after loading is left alone", func() {
				m.dispatch("file-loaded", nil)
				m.dispatch("end-file", map[string]any{"reason": "redirect", "playlist_entry_id": 2.0})
				m.dispatch("end-file", map[string]any{"reason": "stop", "playlist_entry_id": 2.0})
				So(codes, ShouldHaveLength, 1)
			})
		})

		Convey("Nothing is delivered once unloaded", func() {
			m.setListener(nil)
			m.dispatch("file-loaded", nil)
			So(ready, ShouldEqual, 0)
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("Media targets are validated", t, func() {
		_, err := sanitizeMediaTarget("   ")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("--script=evil.lua")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("ftp://host/x.mp4")
		So(err, ShouldNotBeNil)

		target, err := sanitizeMediaTarget(" https://cdn/x.m3u8 ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "https://cdn/x.m3u8")
	})

	Convey("Titles are flattened", t, func() {
		So(sanitizeTitle("a\nb\tc\x00"), ShouldEqual, "a b c")
	})
}
