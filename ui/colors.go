package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	form    lipgloss.Style
	label   lipgloss.Style
	focused lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewBold(w),
		help:    NewEm(h),
		form:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
		label:   NewStyle(h).Width(14),
		focused: NewBold(t).Width(14),
	}
}

// notice returns the banner style for a severity.
func (p *Palette) notice(s Severity) lipgloss.Style {
	switch s {
	case Success:
		return p.ok
	case Warning:
		return p.warn
	default:
		return p.err
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
