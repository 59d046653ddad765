package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	create key.Binding
	edit   key.Binding
	delete key.Binding
	reload key.Binding
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	back   key.Binding
	yes    key.Binding
	no     key.Binding
	help   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		create: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.create, k.edit, k.delete, k.reload, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.create, k.edit, k.delete, k.reload},
		{k.help, k.quit},
	}
}
