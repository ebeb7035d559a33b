package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/songrec/internal/models"
)

var _ list.Item = historyItem{}

// historyItem wraps a stored [models.Session] to implement [list.Item].
//
// index is the position in storage order, so restoring does not depend on display order.
type historyItem struct {
	index   int
	session models.Session
}

func (i historyItem) FilterValue() string { return i.Title() }

func (i historyItem) Title() string {
	names := make([]string, 0, len(i.session.Input))
	for _, s := range i.session.Input {
		names = append(names, s.Name)
	}
	if len(names) == 0 {
		return "(no seeds)"
	}
	return strings.Join(names, ", ")
}

func (i historyItem) Description() string {
	desc := fmt.Sprintf("%d recommendations", len(i.session.Output))
	if len(i.session.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.session.Genres, ", "))
	}
	if !i.session.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.session.CreatedAt.Local().Format(time.DateTime))
	}
	return desc
}

// historyItems converts storage order (most-recent-last) into display order (most-recent-first).
func historyItems(sessions []models.Session) []list.Item {
	items := make([]list.Item, len(sessions))
	for i := range sessions {
		idx := len(sessions) - 1 - i
		items[i] = historyItem{index: idx, session: sessions[idx]}
	}
	return items
}
