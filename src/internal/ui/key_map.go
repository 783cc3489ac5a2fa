package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	home      key.Binding
	search    key.Binding
	watchlist key.Binding
	curated   key.Binding
	signIn    key.Binding
	signOut   key.Binding
	guest     key.Binding
	open      key.Binding
	back      key.Binding
	toggle    key.Binding
	remove    key.Binding
	retry     key.Binding
	undo      key.Binding
	dismiss   key.Binding
	login     key.Binding
	next      key.Binding
	mode      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		home: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		search: key.NewBinding(
			key.WithKeys("2", "/"),
			key.WithHelp("/", "search"),
		),
		watchlist: key.NewBinding(
			key.WithKeys("3", "w"),
			key.WithHelp("w", "watchlist"),
		),
		curated: key.NewBinding(
			key.WithKeys("4", "f"),
			key.WithHelp("f", "for you"),
		),
		signIn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sign in"),
		),
		signOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),
		guest: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "guest"),
		),
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		toggle: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add/remove"),
		),
		remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
		login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log in"),
		),
		next: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		mode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "sign in/up"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.watchlist, k.curated, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.home, k.search, k.watchlist, k.curated},
		{k.open, k.back, k.toggle, k.remove},
		{k.signIn, k.signOut, k.guest},
		{k.retry, k.undo, k.dismiss, k.quit},
	}
}
