// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog API - these keys locate the remote catalog that supplies episodes.
const (
	CatalogBaseURL       = "catalog.base_url"
	CatalogTimeout       = "catalog.timeout"
	CatalogCacheLifetime = "catalog.cache_lifetime"
)

// Media Playback - these keys configure the playback session and the platform media element.
const (
	PlayerDefaultQuality = "player.default_quality"
	PlayerVolume         = "player.volume"
	PlayerControlsHideMs = "player.controls_hide_ms"
	PlayerMPVPath        = "player.mpv_path"
	PlayerBrowser        = "player.browser"
)

// Adaptive Streaming - these keys describe HLS support on the platform.
const (
	HLSNative         = "hls.native"
	HLSSoftwareEngine = "hls.software_engine"
	HLSBufferSegments = "hls.buffer_segments"
	HLSSegmentRetries = "hls.segment_retries"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Presentation - these keys govern CLI and TUI rendering.
const (
	IconsVariant = "icons.variant"
	CliColored   = "cli.colored"
)
