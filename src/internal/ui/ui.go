package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nteezflix/nteezflix/src/internal/client"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/debounce"
	"github.com/nteezflix/nteezflix/src/internal/services/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HomeView ViewState = iota
	SearchView
	DetailsView
	WatchlistView
	CuratedView
	SignInView
)

const (
	actionSignIn  = "sign in"
	actionSignUp  = "sign up"
	actionSignOut = "sign out"
	actionGuest   = "guest"
)

var tabs = []struct {
	view  ViewState
	label string
}{
	{HomeView, "Home"},
	{SearchView, "Search"},
	{WatchlistView, "Watchlist"},
	{CuratedView, "For You"},
}

// Options configures the model.
type Options struct {
	// Guest enters guest mode on start.
	Guest bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	client   *client.Client
	inbox    *Inbox
	debounce *debounce.Debouncer
	opts     Options

	view     ViewState
	back     ViewState
	width    int
	height   int
	home     list.Model
	results  list.Model
	watch    list.Model
	curated  list.Model
	query    textinput.Model
	email    textinput.Model
	password textinput.Model
	signUp   bool
	details  *domain.Details
	loading  bool
	session  domain.Session
	notice   *ports.Notice
	status   string
	err      error
	help     help.Model
	keys     keyMap
	unsubs   []func()
}

// NewModel creates the model. inbox must be the notifier the client was
// opened with so sync notices reach the screen.
func NewModel(ctx context.Context, c *client.Client, inbox *Inbox, opts Options) *Model {
	query := textinput.New()
	query.Placeholder = "Search movies and TV"
	query.Prompt = "/ "

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:      ctx,
		client:   c,
		inbox:    inbox,
		debounce: debounce.New(c.Config.Search.Debounce.Std()),
		opts:     opts,
		view:     HomeView,
		home:     newList("Home", nil, 0, 0),
		results:  newList("Results", nil, 0, 0),
		watch:    newList("Watchlist", nil, 0, 0),
		curated:  newList("For You", nil, 0, 0),
		query:    query,
		email:    email,
		password: password,
		session:  c.Session(),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.unsubs = append(m.unsubs,
		c.Sessions.Subscribe(func(s domain.Session) { inbox.post(sessionMsg(s)) }),
		c.Watchlist.Subscribe(func([]domain.WatchlistItem) { inbox.post(watchlistChangedMsg{}) }),
	)
	return m
}

// Close stops listening for session and watchlist changes and drops any
// pending search.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.debounce.Stop()
}

// Init starts reading the inbox and loads the home shelves.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inbox.wait(), m.loadHome()}
	if m.opts.Guest {
		cmds = append(cmds, m.enterGuest())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case inboxMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(cmd, m.inbox.wait())

	case tea.KeyMsg:
		return m.handleKey(msg)

	case homeLoadedMsg:
		m.loading = false
		m.err = msg.err
		var items []list.Item
		for _, row := range msg.rows {
			items = append(items, titleItems(row.Titles, row.Label)...)
		}
		return m, m.home.SetItems(items)

	case searchResultMsg:
		if msg.query != m.query.Value() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = "Search failed: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		return m, m.results.SetItems(titleItems(msg.page.Results, ""))

	case detailsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Could not load title: " + msg.err.Error()
			m.view = m.back
			return m, nil
		}
		m.details = msg.details
		return m, m.recordView(msg.details)

	case watchlistLoadedMsg:
		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{e: e}
		}
		return m, m.watch.SetItems(items)

	case curatedLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Could not load picks: " + msg.err.Error()
			return m, nil
		}
		if len(msg.feed.Titles) == 0 {
			m.status = "Open a few titles and picks from your favourite genres show up here."
		}
		var genres []string
		for _, row := range msg.feed.Rows {
			genres = append(genres, row.Genre.Name)
		}
		m.curated.Title = "For You"
		if len(genres) > 0 {
			m.curated.Title += ": " + strings.Join(genres, ", ")
		}
		return m, m.curated.SetItems(titleItems(msg.feed.Titles, ""))

	case authDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not %s: %v", msg.action, msg.err)
			return m, nil
		}
		m.status = ""
		switch msg.action {
		case actionSignIn, actionSignUp:
			m.email.Reset()
			m.password.Reset()
			m.email.Blur()
			m.password.Blur()
			return m, m.show(HomeView)
		case actionGuest:
			m.status = session.GuestWarning
		}
		return m, nil

	case syncDoneMsg:
		return m, nil

	case sessionMsg:
		m.session = domain.Session(msg)
		if m.view == CuratedView {
			return m, m.loadCurated()
		}
		return m, nil

	case watchlistChangedMsg:
		if m.view == WatchlistView {
			return m, m.loadWatchlist()
		}
		return m, nil

	case noticeMsg:
		n := ports.Notice(msg)
		m.notice = &n
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.view {
	case HomeView:
		b.WriteString(m.renderList(m.home))
	case SearchView:
		b.WriteString(m.query.View())
		b.WriteString("\n\n")
		b.WriteString(m.renderList(m.results))
	case DetailsView:
		b.WriteString(m.renderDetails())
	case WatchlistView:
		b.WriteString(m.renderWatchlist())
	case CuratedView:
		b.WriteString(m.renderList(m.curated))
	case SignInView:
		b.WriteString(m.renderSignIn())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case SearchView:
		return m.handleSearchKeys(msg)
	case SignInView:
		return m.handleSignInKeys(msg)
	}

	if cmd, ok := m.handleNoticeKeys(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.home):
		return m, m.show(HomeView)
	case key.Matches(msg, m.keys.search):
		return m, m.show(SearchView)
	case key.Matches(msg, m.keys.watchlist):
		return m, m.show(WatchlistView)
	case key.Matches(msg, m.keys.curated):
		return m, m.show(CuratedView)
	case key.Matches(msg, m.keys.signIn):
		return m, m.show(SignInView)
	case key.Matches(msg, m.keys.signOut):
		return m, m.signOut()
	case key.Matches(msg, m.keys.guest):
		return m, m.enterGuest()
	case key.Matches(msg, m.keys.back):
		if m.view == DetailsView {
			m.details = nil
			return m, m.show(m.back)
		}
		return m, nil
	}

	switch m.view {
	case DetailsView:
		if key.Matches(msg, m.keys.toggle) {
			return m, m.toggleWatchlist()
		}
		return m, nil
	case WatchlistView:
		if key.Matches(msg, m.keys.remove) {
			if it, ok := m.watch.SelectedItem().(entryItem); ok {
				return m, m.removeFromWatchlist(it.e.Item.ID)
			}
			return m, nil
		}
	}

	if key.Matches(msg, m.keys.open) {
		if t, ok := m.selectedTitle(); ok {
			return m, m.openDetails(t)
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.query.Blur()
		m.debounce.Cancel()
		return m, m.show(HomeView)
	case key.Matches(msg, m.keys.open):
		if it, ok := m.results.SelectedItem().(titleItem); ok {
			m.query.Blur()
			return m, m.openDetails(it.t)
		}
		return m, nil
	case msg.String() == "up" || msg.String() == "down":
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if q := m.query.Value(); q != before {
		m.search(q)
	}
	return m, cmd
}

func (m *Model) handleSignInKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.email.Blur()
		m.password.Blur()
		m.status = ""
		return m, m.show(HomeView)
	case key.Matches(msg, m.keys.mode):
		m.signUp = !m.signUp
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.switchField()
	case key.Matches(msg, m.keys.open):
		if m.email.Focused() {
			return m, m.switchField()
		}
		return m, m.submitAuth()
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// handleNoticeKeys runs the affordances of the visible notice.
func (m *Model) handleNoticeKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	n := m.notice
	if n == nil {
		return nil, false
	}
	switch {
	case key.Matches(msg, m.keys.retry) && n.Retry != nil:
		return m.runNotice(n.Retry), true
	case key.Matches(msg, m.keys.undo) && n.Undo != nil:
		return m.runNotice(n.Undo), true
	case key.Matches(msg, m.keys.login) && n.Login:
		m.notice = nil
		return m.show(SignInView), true
	case key.Matches(msg, m.keys.dismiss):
		m.notice = nil
		return nil, true
	}
	return nil, false
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HomeView:
		m.home, cmd = m.home.Update(msg)
	case WatchlistView:
		m.watch, cmd = m.watch.Update(msg)
	case CuratedView:
		m.curated, cmd = m.curated.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedTitle() (domain.Title, bool) {
	var selected list.Item
	switch m.view {
	case HomeView:
		selected = m.home.SelectedItem()
	case CuratedView:
		selected = m.curated.SelectedItem()
	case WatchlistView:
		selected = m.watch.SelectedItem()
	}

	switch it := selected.(type) {
	case titleItem:
		return it.t, true
	case entryItem:
		return domain.Title{ID: it.e.Item.ID, Name: it.e.Item.Title, MediaType: it.e.Item.MediaType}, true
	}
	return domain.Title{}, false
}

// show switches view and loads what it needs.
func (m *Model) show(v ViewState) tea.Cmd {
	m.view = v
	m.status = ""
	switch v {
	case HomeView:
		if len(m.home.Items()) == 0 {
			return m.loadHome()
		}
	case SearchView:
		cmd := m.query.Focus()
		if len(m.results.Items()) == 0 {
			m.search(m.query.Value())
		}
		return cmd
	case WatchlistView:
		return m.loadWatchlist()
	case CuratedView:
		return m.loadCurated()
	case SignInView:
		m.password.Blur()
		return m.email.Focus()
	}
	return nil
}

func (m *Model) switchField() tea.Cmd {
	if m.email.Focused() {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m *Model) resize() {
	width := max(m.width-4, 20)
	height := max(m.height-8, 5)
	m.home.SetSize(width, height)
	m.results.SetSize(width, max(height-2, 3))
	m.watch.SetSize(width, height)
	m.curated.SetSize(width, height)
	m.help.Width = width
}

// search queues a debounced catalog search. Only the result for the
// query currently in the input is shown.
func (m *Model) search(query string) {
	m.loading = true
	browser := m.client.Browse
	inbox := m.inbox
	m.debounce.Trigger(func(ctx context.Context) {
		page, err := browser.Search(ctx, query, 1)
		if ctx.Err() != nil {
			return
		}
		inbox.post(searchResultMsg{query: query, page: page, err: err})
	})
}

func (m *Model) loadHome() tea.Cmd {
	m.loading = true
	browser := m.client.Browse
	ctx := m.ctx
	return func() tea.Msg {
		rows, err := browser.Home(ctx, nil)
		return homeLoadedMsg{rows: rows, err: err}
	}
}

func (m *Model) loadWatchlist() tea.Cmd {
	items := m.client.Watchlist.Items()
	browser := m.client.Browse
	ctx := m.ctx
	return func() tea.Msg {
		return watchlistLoadedMsg{entries: browser.Hydrate(ctx, items)}
	}
}

func (m *Model) loadCurated() tea.Cmd {
	m.loading = true
	curator := m.client.Curation
	ctx := m.ctx
	return func() tea.Msg {
		feed, err := curator.Feed(ctx)
		return curatedLoadedMsg{feed: feed, err: err}
	}
}

func (m *Model) openDetails(t domain.Title) tea.Cmd {
	if m.view != DetailsView {
		m.back = m.view
	}
	m.view = DetailsView
	m.details = nil
	m.loading = true
	browser := m.client.Browse
	ctx := m.ctx
	return func() tea.Msg {
		d, err := browser.Details(ctx, t.MediaType, t.ID)
		return detailsLoadedMsg{details: d, err: err}
	}
}

// recordView counts the visit towards the title's genres.
func (m *Model) recordView(d *domain.Details) tea.Cmd {
	sync := m.client.Sync
	ctx := m.ctx
	return func() tea.Msg {
		return syncDoneMsg{err: sync.RecordTitleView(ctx, d)}
	}
}

func (m *Model) toggleWatchlist() tea.Cmd {
	if m.details == nil {
		return nil
	}
	if m.client.Watchlist.Contains(m.details.ID) {
		return m.removeFromWatchlist(m.details.ID)
	}
	item := m.details.WatchlistItem()
	sync := m.client.Sync
	ctx := m.ctx
	return func() tea.Msg {
		return syncDoneMsg{err: sync.Add(ctx, item)}
	}
}

func (m *Model) removeFromWatchlist(id int) tea.Cmd {
	sync := m.client.Sync
	ctx := m.ctx
	return func() tea.Msg {
		return syncDoneMsg{err: sync.Remove(ctx, id)}
	}
}

func (m *Model) runNotice(fn func(context.Context) error) tea.Cmd {
	m.notice = nil
	ctx := m.ctx
	return func() tea.Msg {
		return syncDoneMsg{err: fn(ctx)}
	}
}

func (m *Model) submitAuth() tea.Cmd {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	signUp := m.signUp
	sessions := m.client.Sessions
	ctx := m.ctx
	m.loading = true
	return func() tea.Msg {
		if signUp {
			return authDoneMsg{action: actionSignUp, err: sessions.SignUp(ctx, email, password)}
		}
		return authDoneMsg{action: actionSignIn, err: sessions.SignIn(ctx, email, password)}
	}
}

func (m *Model) signOut() tea.Cmd {
	sessions := m.client.Sessions
	ctx := m.ctx
	return func() tea.Msg {
		return authDoneMsg{action: actionSignOut, err: sessions.SignOut(ctx)}
	}
}

func (m *Model) enterGuest() tea.Cmd {
	sessions := m.client.Sessions
	ctx := m.ctx
	return func() tea.Msg {
		return authDoneMsg{action: actionGuest, err: sessions.EnterGuest(ctx)}
	}
}

func (m *Model) renderHeader() string {
	active := m.view
	if active == DetailsView {
		active = m.back
	}

	parts := []string{styles.title.UnsetMarginBottom().Render("NteezFlix")}
	for _, tab := range tabs {
		if tab.view == active {
			parts = append(parts, styles.active.Render(tab.label))
		} else {
			parts = append(parts, styles.tab.Render(tab.label))
		}
	}
	parts = append(parts, styles.help.Render(m.sessionLabel()))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) sessionLabel() string {
	switch {
	case m.session.Authenticated():
		return "  " + m.session.Email
	case m.session.Guest:
		return "  guest (not saved)"
	default:
		return "  signed out"
	}
}

func (m *Model) renderList(l list.Model) string {
	if m.err != nil && m.view == HomeView {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.loading && len(l.Items()) == 0 {
		return styles.help.Render("Loading...")
	}
	return l.View()
}

func (m *Model) renderWatchlist() string {
	if len(m.watch.Items()) == 0 {
		if m.session.SignedOut() {
			return styles.help.Render("Sign in (s) or continue as guest (g) to keep a watchlist.")
		}
		return styles.help.Render("Your watchlist is empty. Open a title and press a to add it.")
	}
	return m.watch.View()
}

func (m *Model) renderDetails() string {
	if m.details == nil {
		return styles.help.Render("Loading...")
	}
	d := m.details
	width := max(m.width-4, 40)
	wrap := styles.body.Width(width)

	var b strings.Builder
	b.WriteString(styles.title.Render(withYear(d.Name, d.Year())))
	b.WriteString("\n")
	if d.Tagline != "" {
		b.WriteString(styles.help.Render(d.Tagline))
		b.WriteString("\n")
	}

	meta := []string{kindLabel(d.MediaType)}
	if l := d.Length(); l != "" {
		meta = append(meta, l)
	}
	if d.Rating > 0 {
		meta = append(meta, fmt.Sprintf("★ %.1f", d.Rating))
	}
	if len(d.GenreNames) > 0 {
		meta = append(meta, strings.Join(d.GenreNames, ", "))
	}
	b.WriteString(strings.Join(meta, " • "))
	b.WriteString("\n\n")

	if d.Overview != "" {
		b.WriteString(wrap.Render(d.Overview))
		b.WriteString("\n\n")
	}

	if len(d.Cast) > 0 {
		names := make([]string, 0, 5)
		for _, c := range d.Cast[:min(len(d.Cast), 5)] {
			names = append(names, c.Name)
		}
		b.WriteString(wrap.Render("Starring " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	if len(d.Trailers) > 0 {
		b.WriteString("Trailer https://www.youtube.com/watch?v=" + d.Trailers[0].Key)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.client.Watchlist.Contains(d.ID) {
		b.WriteString(styles.ok.Render("✓ On your watchlist"))
		b.WriteString(styles.help.Render("  a to remove"))
	} else {
		b.WriteString(styles.help.Render("a to add to your watchlist"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSignIn() string {
	heading := "Sign in"
	if m.signUp {
		heading = "Create an account"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.loading {
		b.WriteString(styles.help.Render("Working..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var b strings.Builder

	if n := m.notice; n != nil {
		line := styles.notice(n.Level).Render(n.Title)
		if n.Detail != "" {
			line += " " + n.Detail
		}
		var hints []string
		if n.Retry != nil {
			hints = append(hints, "r retry")
		}
		if n.Undo != nil {
			hints = append(hints, "u undo")
		}
		if n.Login {
			hints = append(hints, "l log in")
		}
		hints = append(hints, "x dismiss")
		b.WriteString(line + "  " + styles.help.Render(strings.Join(hints, " • ")))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(styles.warn.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.contextKeys()))
	return b.String()
}

func (m *Model) contextKeys() []key.Binding {
	switch m.view {
	case SearchView:
		return []key.Binding{m.keys.open, m.keys.back}
	case SignInView:
		return []key.Binding{m.keys.open, m.keys.next, m.keys.mode, m.keys.back}
	case DetailsView:
		return []key.Binding{m.keys.toggle, m.keys.back, m.keys.quit}
	case WatchlistView:
		return []key.Binding{m.keys.open, m.keys.remove, m.keys.home, m.keys.quit}
	}

	keys := []key.Binding{m.keys.open}
	keys = append(keys, m.keys.ShortHelp()...)
	if m.session.Authenticated() || m.session.Guest {
		keys = append(keys, m.keys.signOut)
	} else {
		keys = append(keys, m.keys.signIn, m.keys.guest)
	}
	return keys
}
