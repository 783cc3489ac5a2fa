package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/services/browse"
)

var (
	_ list.Item = titleItem{}
	_ list.Item = entryItem{}
)

// titleItem wraps [domain.Title] to implement [list.Item].
type titleItem struct {
	t     domain.Title
	shelf string
}

func (i titleItem) FilterValue() string { return i.t.Name }
func (i titleItem) Title() string       { return withYear(i.t.Name, i.t.Year()) }
func (i titleItem) Description() string {
	parts := []string{}
	if i.shelf != "" {
		parts = append(parts, i.shelf)
	}
	parts = append(parts, kindLabel(i.t.MediaType))
	if i.t.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.t.Rating))
	}
	if len(i.t.GenreNames) > 0 {
		parts = append(parts, strings.Join(i.t.GenreNames, ", "))
	}
	return strings.Join(parts, " • ")
}

// entryItem wraps a hydrated watchlist [browse.Entry].
type entryItem struct {
	e browse.Entry
}

func (i entryItem) FilterValue() string { return i.e.Item.Title }
func (i entryItem) Title() string {
	if i.e.Details != nil {
		return withYear(i.e.Details.Name, i.e.Details.Year())
	}
	return i.e.Item.Title
}
func (i entryItem) Description() string {
	if i.e.Details == nil {
		return kindLabel(i.e.Item.MediaType) + " • details unavailable"
	}
	parts := []string{kindLabel(i.e.Item.MediaType)}
	if l := i.e.Details.Length(); l != "" {
		parts = append(parts, l)
	}
	if i.e.Details.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.e.Details.Rating))
	}
	return strings.Join(parts, " • ")
}

func withYear(name, year string) string {
	if year == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, year)
}

func kindLabel(m domain.MediaType) string {
	if m == domain.MediaTypeTV {
		return "TV"
	}
	return "Movie"
}

func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

func titleItems(titles []domain.Title, shelf string) []list.Item {
	items := make([]list.Item, len(titles))
	for i, t := range titles {
		items[i] = titleItem{t: t, shelf: shelf}
	}
	return items
}
