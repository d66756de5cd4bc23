// Package icon renders UI symbols in the variant chosen by the icons.variant setting.
package icon

import (
	"github.com/dramaplay/dramaplay/key"
	"github.com/spf13/viper"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Play
	Pause
	Volume
	Muted
	Fullscreen
	Quality
	Embedded
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Fail:       {emoji: "💀", nerd: "\uf00d", plain: "x"},
	Success:    {emoji: "🎉", nerd: "\uf00c", plain: "v"},
	Progress:   {emoji: "👾", nerd: "\uf110", plain: "~"},
	Play:       {emoji: "▶️", nerd: "\uf04b", plain: ">"},
	Pause:      {emoji: "⏸️", nerd: "\uf04c", plain: "||"},
	Volume:     {emoji: "🔊", nerd: "\uf028", plain: "vol"},
	Muted:      {emoji: "🔇", nerd: "\uf026", plain: "mute"},
	Fullscreen: {emoji: "⛶", nerd: "\uf065", plain: "[ ]"},
	Quality:    {emoji: "📺", nerd: "\uf26c", plain: "q"},
	Embedded:   {emoji: "🌐", nerd: "\uf0ac", plain: "www"},
}

// Get returns the rendered string for an icon in the configured variant.
func Get(i Icon) string {
	return icons[i].get()
}
