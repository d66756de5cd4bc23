package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dramaplay/dramaplay/icon"
	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/style"
	"github.com/dramaplay/dramaplay/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	switch b.state {
	case episodesState:
		return listExtraPaddingStyle.Render(b.episodesC.View())
	case watchState:
		return b.viewWatch()
	default:
		return "Unknown state"
	}
}

func (b *statefulBubble) viewWatch() string {
	snap := b.snapshot

	header := b.options.Title
	if b.current != nil {
		header = fmt.Sprintf("%s · Episode %d", header, b.current.EpsNumber)
	}

	lines := []string{style.Title(header), ""}

	switch {
	case snap.Error != nil:
		lines = append(lines, b.viewError(snap)...)
	case snap.Loading:
		lines = append(lines, b.spinnerC.View()+" Loading "+snap.Quality.String())
	case snap.Kind == player.KindEmbedded:
		lines = append(lines, icon.Get(icon.Embedded)+" Playing in the browser")
	default:
		lines = append(lines, b.viewTimeline(snap)...)
	}

	if b.controls.Visible(time.Now(), snap.Playing) || snap.Error != nil {
		lines = append(lines, "", b.viewQualities(snap), b.viewStatus(snap), "", b.helpC.View(b.keymap))
	}

	return b.renderLines(lines)
}

func (b *statefulBubble) viewError(snap session.Snapshot) []string {
	return []string{
		style.ErrorTitle(icon.Get(icon.Fail) + " " + snap.Error.Kind),
		"",
		wrap.String(snap.Error.Message, b.width),
		"",
		style.Faint("press r to retry"),
	}
}

func (b *statefulBubble) viewTimeline(snap session.Snapshot) []string {
	state := icon.Get(icon.Pause)
	if snap.Playing {
		state = icon.Get(icon.Play)
	}

	duration, known := snap.Duration.Get()
	if !known {
		return []string{fmt.Sprintf("%s %s", state, util.FormatTime(snap.Position))}
	}

	var ratio float64
	if duration > 0 {
		ratio = util.Clamp(snap.Position/duration, 0, 1)
	}

	return []string{
		fmt.Sprintf("%s %s / %s", state, util.FormatTime(snap.Position), util.FormatTime(duration)),
		b.progressC.ViewAs(ratio),
	}
}

func (b *statefulBubble) viewQualities(snap session.Snapshot) string {
	tiers := lo.Map(source.Qualities, func(q source.Quality, i int) string {
		label := fmt.Sprintf("%d %s", i+1, q.String())
		switch {
		case q == snap.Quality:
			return style.Tag(style.Text, style.Accent)(label)
		case lo.Contains(snap.Available, q):
			return style.Fg(style.Subtext)(label)
		default:
			return style.Fg(style.Overlay)(label)
		}
	})
	return icon.Get(icon.Quality) + " " + strings.Join(tiers, " ")
}

func (b *statefulBubble) viewStatus(snap session.Snapshot) string {
	volume := fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), int(snap.Volume*100+0.5))
	if snap.Muted {
		volume = icon.Get(icon.Muted) + " muted"
	}

	parts := []string{volume, style.Faint(snap.Backend)}
	if snap.Fullscreen {
		parts = append(parts, icon.Get(icon.Fullscreen))
	}
	return strings.Join(parts, "  ")
}

func (b *statefulBubble) renderLines(lines []string) string {
	return paddingStyle.Render(strings.Join(lines, "\n"))
}
