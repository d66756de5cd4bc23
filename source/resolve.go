package source

import "strings"

// Strategy is the coarse playback strategy for a source URL.
type Strategy int

const (
	// NoSource means the tier has no URL.
	NoSource Strategy = iota
	// Embedded means the URL is a third-party player page.
	Embedded
	// Direct means the URL is playable media.
	Direct
)

func (s Strategy) String() string {
	switch s {
	case NoSource:
		return "none"
	case Embedded:
		return "embedded"
	case Direct:
		return "direct"
	default:
		return "unknown"
	}
}

// Format refines a Direct strategy.
type Format int

const (
	FormatNone Format = iota
	ProgressiveFile
	AdaptiveStream
)

func (f Format) String() string {
	switch f {
	case ProgressiveFile:
		return "progressive"
	case AdaptiveStream:
		return "adaptive"
	default:
		return "none"
	}
}

// Resolution is the outcome of classifying one URL.
type Resolution struct {
	URL      string
	Strategy Strategy
	Format   Format
}

const adaptiveExt = ".m3u8"

// directExts are the media extensions that mark a URL as directly playable.
var directExts = []string{adaptiveExt, ".mp4", ".webm"}

// embedMarkers flag third-party player pages even when a media extension is present.
var embedMarkers = []string{"bunny.php", "embed", "player"}

// Resolve classifies url. It is pure and total: every string maps to a Resolution.
func Resolve(url string) Resolution {
	url = strings.TrimSpace(url)
	if url == "" {
		return Resolution{Strategy: NoSource}
	}

	if isEmbedded(url) {
		return Resolution{URL: url, Strategy: Embedded}
	}

	format := ProgressiveFile
	if strings.Contains(url, adaptiveExt) {
		format = AdaptiveStream
	}
	return Resolution{URL: url, Strategy: Direct, Format: format}
}

func isEmbedded(url string) bool {
	for _, m := range embedMarkers {
		if strings.Contains(url, m) {
			return true
		}
	}
	for _, ext := range directExts {
		if strings.Contains(url, ext) {
			return false
		}
	}
	return true
}
