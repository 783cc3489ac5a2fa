package testutil

import (
	"sync"

	"github.com/nteezflix/nteezflix/src/internal/ports"
)

// RecordingNotifier keeps every notice it receives.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []ports.Notice
}

func (r *RecordingNotifier) Notify(n ports.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the received notices.
func (r *RecordingNotifier) Notices() []ports.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Notice(nil), r.notices...)
}

// Last returns the most recent notice.
func (r *RecordingNotifier) Last() (ports.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return ports.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
