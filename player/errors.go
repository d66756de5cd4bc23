package player

import (
	"errors"
	"fmt"
)

// ErrorKind is the playback failure taxonomy surfaced to the session.
type ErrorKind int

const (
	SourceUnavailable ErrorKind = iota + 1
	UnsupportedFormat
	DecodeError
	NetworkError
	AbortedError
	PlaybackRejected
	StreamEngineFatal
)

func (k ErrorKind) String() string {
	switch k {
	case SourceUnavailable:
		return "SourceUnavailable"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case DecodeError:
		return "DecodeError"
	case NetworkError:
		return "NetworkError"
	case AbortedError:
		return "AbortedError"
	case PlaybackRejected:
		return "PlaybackRejected"
	case StreamEngineFatal:
		return "StreamEngineFatal"
	default:
		return "Unknown"
	}
}

// Error is a mapped playback failure. Detail carries the kind-specific payload:
// the quality label, the rejection cause or the engine diagnostic.
type Error struct {
	Kind   ErrorKind
	Detail string
}

// NewError builds an *Error.
func NewError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Error returns the human-readable message shown on the error overlay.
func (e *Error) Error() string {
	switch e.Kind {
	case SourceUnavailable:
		return fmt.Sprintf("No video URL available for %s quality", e.Detail)
	case UnsupportedFormat:
		return "HLS is not supported on this platform"
	case DecodeError:
		if e.Detail != "" {
			return e.Detail
		}
		return "Video format is not supported or corrupted"
	case NetworkError:
		return "Network error occurred while loading video"
	case AbortedError:
		return "Video playback was aborted"
	case PlaybackRejected:
		return "Playback failed: " + e.Detail
	case StreamEngineFatal:
		return "HLS Error: " + e.Detail
	default:
		return "Unknown video error"
	}
}

// Is matches errors of the same kind, so errors.Is(err, &Error{Kind: NetworkError}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// AsError maps any error into the taxonomy. Unmapped errors are load failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(DecodeError, "Failed to load video: "+err.Error())
}

// MediaErrorCode mirrors the error codes a platform media element reports.
type MediaErrorCode int

const (
	MediaErrAborted MediaErrorCode = iota + 1
	MediaErrNetwork
	MediaErrDecode
	MediaErrSrcNotSupported
)

// FromMediaError maps a platform media error into the taxonomy.
func FromMediaError(code MediaErrorCode) *Error {
	switch code {
	case MediaErrAborted:
		return NewError(AbortedError, "")
	case MediaErrNetwork:
		return NewError(NetworkError, "")
	case MediaErrDecode:
		return NewError(DecodeError, "Video format is not supported or corrupted")
	case MediaErrSrcNotSupported:
		return NewError(DecodeError, "Video source is not supported")
	default:
		return NewError(DecodeError, "Unknown video error")
	}
}
