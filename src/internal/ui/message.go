package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/browse"
	"github.com/nteezflix/nteezflix/src/internal/services/curation"
)

const inboxSize = 64

type homeLoadedMsg struct {
	rows []browse.Row
	err  error
}

type searchResultMsg struct {
	query string
	page  *domain.Page
	err   error
}

type detailsLoadedMsg struct {
	details *domain.Details
	err     error
}

type watchlistLoadedMsg struct {
	entries []browse.Entry
}

type curatedLoadedMsg struct {
	feed *curation.Feed
	err  error
}

// authDoneMsg reports a sign in, sign up, sign out or guest attempt.
type authDoneMsg struct {
	action string
	err    error
}

// syncDoneMsg reports a watchlist write. Failures are already reported
// through notices.
type syncDoneMsg struct {
	err error
}

type sessionMsg domain.Session

type watchlistChangedMsg struct{}

type noticeMsg ports.Notice

// inboxMsg wraps every message read from the [Inbox], so the model knows
// to wait for the next one.
type inboxMsg struct {
	msg tea.Msg
}

// Inbox carries messages produced outside the bubbletea loop into it. It
// implements [ports.Notifier]. Posting never blocks; when the buffer is
// full the message is dropped.
type Inbox struct {
	ch chan tea.Msg
}

var _ ports.Notifier = (*Inbox)(nil)

func NewInbox() *Inbox {
	return &Inbox{ch: make(chan tea.Msg, inboxSize)}
}

// Notify implements [ports.Notifier].
func (b *Inbox) Notify(n ports.Notice) {
	b.post(noticeMsg(n))
}

func (b *Inbox) post(msg tea.Msg) bool {
	select {
	case b.ch <- msg:
		return true
	default:
		return false
	}
}

// wait blocks until the next posted message.
func (b *Inbox) wait() tea.Cmd {
	return func() tea.Msg {
		return inboxMsg{msg: <-b.ch}
	}
}
