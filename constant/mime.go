package constant

// Media types probed against the platform media element.
const (
	MimeHLS = "application/vnd.apple.mpegurl"
	MimeMP4 = "video/mp4"
	MimeTS  = "video/mp2t"
)
