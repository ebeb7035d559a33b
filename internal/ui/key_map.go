package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// While the search box has focus only tab, shift+tab, esc, enter, the arrows and ctrl+c
// are bindings; every other key is typed into the query.
type keyMap struct {
	next      key.Binding
	prev      key.Binding
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	random    key.Binding
	genre     key.Binding
	all       key.Binding
	more      key.Binding
	less      key.Binding
	recommend key.Binding
	history   key.Binding
	clear     key.Binding
	open      key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
		random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random seed")),
		genre:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "genres")),
		all:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all genres")),
		more:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "count")),
		less:      key.NewBinding(key.WithKeys("-", "_")),
		recommend: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "recommend")),
		history:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear history")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open track")),
		quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.enter, k.random, k.recommend, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.up, k.down, k.enter, k.back},
		{k.random, k.genre, k.all, k.more, k.recommend},
		{k.history, k.clear, k.open, k.quit},
	}
}
