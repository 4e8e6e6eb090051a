// Package ui holds the data-entry workflows of the dashboard as explicit
// view state: form controllers that validate before any network call, and a
// notification presenter for transient feedback. The rendering runtime sits
// behind small interfaces so the workflows stay testable in isolation.
package ui

import (
	"sync"
	"time"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultBannerTTL is how long a banner stays visible before auto-dismissal.
const DefaultBannerTTL = 5 * time.Second

// Banner is one visible notification.
type Banner struct {
	Message  string
	Severity Severity
}

// Notifier presents at most one banner at a time. A new notification
// replaces the current one; banners auto-dismiss after the TTL unless
// dismissed manually or superseded first.
type Notifier struct {
	mu      sync.Mutex
	current *Banner
	seq     uint64
	timer   *time.Timer
	ttl     time.Duration
	after   func(time.Duration, func()) *time.Timer
}

func NewNotifier() *Notifier {
	return &Notifier{
		ttl:   DefaultBannerTTL,
		after: time.AfterFunc,
	}
}

// Notify replaces any visible banner and schedules its auto-dismissal.
func (n *Notifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	n.current = &Banner{Message: message, Severity: severity}
	n.timer = n.after(n.ttl, func() {
		n.dismissIf(seq)
	})
}

// Dismiss removes the current banner, if any.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}

// Current returns the visible banner.
func (n *Notifier) Current() (Banner, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Banner{}, false
	}
	return *n.current, true
}

// dismissIf clears the banner only when it has not been superseded since the
// timer was armed.
func (n *Notifier) dismissIf(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seq != seq {
		return
	}
	n.current = nil
	n.timer = nil
}
