package tui

import (
	"fmt"
	"strings"

	"github.com/dramaplay/dramaplay/icon"
	"github.com/dramaplay/dramaplay/source"
	"github.com/dramaplay/dramaplay/style"
	"github.com/samber/lo"
)

// listItem implements list.Item for an episode.
type listItem struct {
	episode *source.Episode
	watched bool
}

func (t *listItem) Title() string {
	title := fmt.Sprintf("Episode %d", t.episode.EpsNumber)
	if t.watched {
		title += " " + icon.Get(icon.Success)
	}
	return title
}

func (t *listItem) Description() string {
	available := t.episode.Available()
	if len(available) == 0 {
		return style.Faint("no sources")
	}

	labels := lo.Map(available, func(q source.Quality, _ int) string {
		label := q.String()
		if source.Resolve(t.episode.SourceFor(q)).Strategy == source.Embedded {
			label += " " + icon.Get(icon.Embedded)
		}
		return label
	})
	return strings.Join(labels, " · ")
}

func (t *listItem) FilterValue() string {
	return fmt.Sprintf("Episode %d", t.episode.EpsNumber)
}
