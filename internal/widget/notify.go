package widget

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-chat/internal/render"
)

// DefaultNotifyTimeout is how long a notification stays on screen.
const DefaultNotifyTimeout = 3 * time.Second

// Notifier shows transient banners on a Surface. Each banner is removed after
// the timeout or earlier through Dismiss, whichever comes first.
type Notifier struct {
	surface Surface
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewNotifier returns a Notifier writing to surface.
func NewNotifier(surface Surface, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		surface: surface,
		timeout: timeout,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}
}

// Show displays message with the given severity and returns the banner id.
func (n *Notifier) Show(message, severity string) string {
	note := render.Note{ID: uuid.NewString(), Message: message, Severity: severity}
	html, err := render.Notification(note)
	if err != nil {
		n.logger.Error("render notification", zap.Error(err))
		return ""
	}

	n.mu.Lock()
	n.surface.AddNotification(note.ID, html)
	n.timers[note.ID] = time.AfterFunc(n.timeout, func() { n.Dismiss(note.ID) })
	n.mu.Unlock()
	return note.ID
}

// Dismiss removes banner id. Unknown or already removed ids are ignored.
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	t, ok := n.timers[id]
	if ok {
		t.Stop()
		delete(n.timers, id)
	}
	n.mu.Unlock()
	if ok {
		n.surface.RemoveNotification(id)
	}
}

// DismissAll removes every banner still shown.
func (n *Notifier) DismissAll() {
	n.mu.Lock()
	ids := make([]string, 0, len(n.timers))
	for id := range n.timers {
		ids = append(ids, id)
	}
	n.mu.Unlock()
	for _, id := range ids {
		n.Dismiss(id)
	}
}

// Pending returns the number of banners still shown.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.timers)
}
