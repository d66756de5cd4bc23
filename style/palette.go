package style

import "github.com/charmbracelet/lipgloss"

// Standard ANSI palette.
var (
	Red    = lipgloss.Color("1")
	Green  = lipgloss.Color("2")
	Yellow = lipgloss.Color("3")
	Blue   = lipgloss.Color("4")
	Purple = lipgloss.Color("5")
	Cyan   = lipgloss.Color("6")
	White  = lipgloss.Color("7")

	HiRed    = lipgloss.Color("9")
	HiPurple = lipgloss.Color("13")
	HiCyan   = lipgloss.Color("14")
)

// Player accents, taken from the watch page of the web front-end.
var (
	Accent  = lipgloss.Color("#dc2626")
	Text    = lipgloss.Color("#f5f5f5")
	Subtext = lipgloss.Color("#d1d5db")
	Overlay = lipgloss.Color("#6b7280")
	Surface = lipgloss.Color("#111111")
	Orange  = lipgloss.Color("#ffb703")
)
