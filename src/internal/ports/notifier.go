package ports

import (
	"context"

	"github.com/google/uuid"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a dismissible user-visible message. Retry and Undo are nil
// when the affordance is not offered.
type Notice struct {
	ID     string
	Level  NoticeLevel
	Title  string
	Detail string
	Retry  func(ctx context.Context) error
	Undo   func(ctx context.Context) error
	// Login asks the presentation layer to offer a sign-in prompt.
	Login bool
}

// NewNotice creates a notice with a fresh ID.
func NewNotice(level NoticeLevel, title string) Notice {
	return Notice{ID: uuid.NewString(), Level: level, Title: title}
}

// Notifier delivers notices to the presentation layer.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// NoopNotifier drops every notice.
type NoopNotifier struct{}

// Notify implements Notifier as a no-op.
func (NoopNotifier) Notify(Notice) {}
