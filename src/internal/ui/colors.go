package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nteezflix/nteezflix/src/internal/ports"
)

var styles = NewPalette("#E50914", "#04B575", "#FF5F56", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] values.
type Palette struct {
	title  lipgloss.Style
	tab    lipgloss.Style
	active lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	body   lipgloss.Style
}

func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title:  NewBold(accent).MarginBottom(1),
		tab:    NewStyle(muted).Padding(0, 1),
		active: NewBold(accent).Padding(0, 1).Underline(true),
		ok:     NewBold(success),
		err:    NewBold(failure),
		warn:   NewStyle(warning),
		help:   NewEm(muted),
		body:   lipgloss.NewStyle(),
	}
}

// notice picks the style for a notice level.
func (p *Palette) notice(level ports.NoticeLevel) lipgloss.Style {
	switch level {
	case ports.NoticeError:
		return p.err
	case ports.NoticeSuccess:
		return p.ok
	default:
		return p.warn
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
