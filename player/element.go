package player

// ElementListener receives the signals of one MediaElement load.
type ElementListener struct {
	Metadata   func(duration float64)
	DataReady  func()
	TimeUpdate func(position float64)
	Ended      func()
	Error      func(code MediaErrorCode, message string)
}

// MediaElement is the platform media element. It is exclusively owned by one
// session and plays at most one source at a time; Load replaces the listener.
type MediaElement interface {
	// CanPlayType reports whether the element decodes the MIME type natively.
	CanPlayType(mime string) bool
	Load(url string, listener ElementListener) error
	// Unload stops playback and silences the current listener.
	Unload() error
	Play() error
	Pause() error
	Seek(seconds float64) error
	// SetVolume takes a level in [0, 1].
	SetVolume(level float64) error
	SetFullscreen(on bool) error
	// Close releases the element itself.
	Close() error
}
