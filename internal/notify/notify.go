// Package notify shows transient notifications that dismiss themselves after a fixed window.
package notify

import (
	"sync"
	"time"

	"github.com/ocr-scanner/backend/internal/models"
)

// DefaultWindow is how long a notification stays visible.
const DefaultWindow = 3 * time.Second

// Listener receives the notification to display, or nil when it is dismissed.
type Listener func(n *models.Notification)

// Notifier holds at most one visible notification. A newer notification
// replaces the older one, and the older timer never dismisses the newer.
type Notifier struct {
	mu       sync.Mutex
	window   time.Duration
	listener Listener
	current  *models.Notification
	timer    *time.Timer
	gen      uint64
}

// New creates a Notifier. A non-positive window falls back to DefaultWindow.
func New(window time.Duration, listener Listener) *Notifier {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Notifier{window: window, listener: listener}
}

// Success shows a success notification.
func (n *Notifier) Success(msg string) {
	n.show(msg, models.SeveritySuccess)
}

// Error shows an error notification.
func (n *Notifier) Error(msg string) {
	n.show(msg, models.SeverityError)
}

func (n *Notifier) show(msg string, sev models.Severity) {
	note := &models.Notification{Message: msg, Severity: sev, ShownAt: time.Now()}

	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.current = note
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.window, func() { n.expire(gen) })
	listener := n.listener
	n.mu.Unlock()

	if listener != nil {
		listener(note)
	}
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || n.current == nil {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	listener := n.listener
	n.mu.Unlock()

	if listener != nil {
		listener(nil)
	}
}

// Current returns the visible notification, or nil.
func (n *Notifier) Current() *models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	cp := *n.current
	return &cp
}

// Stop cancels any pending dismissal timer.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
