package tui

import (
	"time"

	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/style"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// statefulBubble holds the whole UI: the episode list and the watch view of
// the session currently playing.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	episodesC list.Model
	progressC progress.Model
	helpC     help.Model

	session   *session.Session
	snapshots chan session.Snapshot
	snapshot  session.Snapshot
	controls  *session.Controls
	current   *source.Episode
	quality   source.Quality
	watched   map[int]bool

	width, height int
	init          tea.Cmd

	options *Options
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	b.episodesC.SetSize(listWidth, height-yy)
	b.episodesC.Help.Width = listWidth

	b.progressC.Width = listWidth
	b.helpC.Width = listWidth

	b.width = width - x
	b.height = height - y
}

func (b *statefulBubble) episodeByNumber(number int) (*source.Episode, bool) {
	return lo.Find(b.options.Episodes, func(e *source.Episode) bool {
		return e.EpsNumber == number
	})
}

// watch closes any running session and starts a new one for ep.
func (b *statefulBubble) watch(ep *source.Episode) tea.Cmd {
	b.stopWatching()

	s := b.options.NewSession()
	snapshots := make(chan session.Snapshot, 1)

	// latest wins: a slow UI only ever sees the newest state
	s.Subscribe(func(snap session.Snapshot) {
		select {
		case <-snapshots:
		default:
		}
		select {
		case snapshots <- snap:
		default:
		}
	})
	s.Initialize(*ep, b.quality)

	b.session = s
	b.snapshots = snapshots
	b.snapshot = s.Snapshot()
	b.current = ep
	b.watched[ep.EpsNumber] = true
	b.refreshEpisodes()

	b.setState(watchState)
	return tea.Batch(b.waitForSnapshot(), b.spinnerC.Tick, b.touch())
}

// stopWatching closes the running session, if any, and returns its done channel.
func (b *statefulBubble) stopWatching() <-chan struct{} {
	if b.session == nil {
		return nil
	}

	done := b.session.Done()
	b.session.Close()
	b.session = nil
	b.snapshots = nil
	return done
}

func (b *statefulBubble) refreshEpisodes() {
	items := lo.Map(b.options.Episodes, func(ep *source.Episode, _ int) list.Item {
		return &listItem{episode: ep, watched: b.watched[ep.EpsNumber]}
	})
	b.episodesC.SetItems(items)
}

func newBubble(options *Options) *statefulBubble {
	bubble := statefulBubble{
		keymap:   newStatefulKeymap(),
		controls: session.NewControls(options.HideAfter),
		quality:  options.Quality,
		watched:  make(map[int]bool),
		options:  options,
	}

	if !bubble.quality.Valid() {
		bubble.quality = source.DefaultQuality
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.Accent).
		Foreground(style.Accent).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.episodesC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.episodesC.KeyMap = bubble.keymap.forList()
	bubble.episodesC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
	bubble.episodesC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.FullHelp()[0]
	}
	bubble.episodesC.Title = options.Title
	bubble.episodesC.Styles.Title = style.Colored(style.Text, style.Accent).Padding(0, 1)
	bubble.episodesC.Styles.NoItems = paddingStyle
	bubble.episodesC.SetStatusBarItemName("episode", "episodes")
	bubble.episodesC.SetShowPagination(false)
	bubble.refreshEpisodes()

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = style.Colored(style.Accent, "")

	bubble.progressC = progress.New(
		progress.WithSolidFill(string(style.Accent)),
		progress.WithoutPercentage(),
	)

	bubble.setState(episodesState)

	if w, h, err := terminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.controls.Touch(time.Now())
	return &bubble
}
