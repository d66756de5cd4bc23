package tui

import (
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	seekStep   = 10
	volumeStep = 0.1
)

func (b *statefulBubble) Init() tea.Cmd {
	return b.init
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case snapshotMsg:
		if msg.session != b.session {
			return b, nil
		}
		wasLoading := b.snapshot.Loading
		b.snapshot = msg.snapshot
		if msg.snapshot.Loading && !wasLoading {
			return b, tea.Batch(b.waitForSnapshot(), b.spinnerC.Tick)
		}
		return b, b.waitForSnapshot()
	case sessionClosedMsg:
		return b, nil
	case controlsTickMsg:
		return b, nil
	case spinner.TickMsg:
		if b.state != watchState || !b.snapshot.Loading {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	switch b.state {
	case episodesState:
		return b.updateEpisodes(msg)
	case watchState:
		return b.updateWatch(msg)
	}

	return b, nil
}

func (b *statefulBubble) updateEpisodes(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && b.episodesC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.confirm):
			item, ok := b.episodesC.SelectedItem().(*listItem)
			if !ok {
				return b, nil
			}
			return b, b.watch(item.episode)
		}
	}

	var cmd tea.Cmd
	b.episodesC, cmd = b.episodesC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateWatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || b.session == nil {
		return b, nil
	}

	s := b.session
	touch := b.touch()

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b, tea.Quit
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		b.stopWatching()
		b.setState(episodesState)
		return b, nil
	case bubblesKey.Matches(keyMsg, b.keymap.playPause):
		s.TogglePlay()
	case bubblesKey.Matches(keyMsg, b.keymap.seekBack):
		s.SeekBy(-seekStep)
	case bubblesKey.Matches(keyMsg, b.keymap.seekForward):
		s.SeekBy(seekStep)
	case bubblesKey.Matches(keyMsg, b.keymap.volumeUp):
		s.AdjustVolume(volumeStep)
	case bubblesKey.Matches(keyMsg, b.keymap.volumeDown):
		s.AdjustVolume(-volumeStep)
	case bubblesKey.Matches(keyMsg, b.keymap.mute):
		s.ToggleMute()
	case bubblesKey.Matches(keyMsg, b.keymap.fullscreen):
		s.ToggleFullscreen()
	case bubblesKey.Matches(keyMsg, b.keymap.quality):
		if q, ok := qualityForKey(keyMsg.String()); ok {
			b.quality = q
			s.ChangeQuality(q)
		}
	case bubblesKey.Matches(keyMsg, b.keymap.cycleQuality):
		if q, ok := nextQuality(b.snapshot.Available, b.snapshot.Quality); ok {
			b.quality = q
			s.ChangeQuality(q)
		}
	case bubblesKey.Matches(keyMsg, b.keymap.retry):
		s.Retry()
	case bubblesKey.Matches(keyMsg, b.keymap.nextEp):
		if ep, ok := b.neighbour(true); ok {
			return b, b.watch(ep)
		}
	case bubblesKey.Matches(keyMsg, b.keymap.prevEp):
		if ep, ok := b.neighbour(false); ok {
			return b, b.watch(ep)
		}
	case bubblesKey.Matches(keyMsg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	return b, touch
}
