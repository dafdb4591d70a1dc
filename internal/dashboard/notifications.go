package dashboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
)

const (
	DefaultMaxVisible    = 3
	DefaultFadeOut       = 300 * time.Millisecond
	DefaultToastDuration = 5 * time.Second
)

type NotificationOptions struct {
	MaxVisible int
	// FadeOut is how long a dismissed toast stays on screen, hidden, before
	// its slot is handed to the next queued one.
	FadeOut time.Duration
}

type activeToast struct {
	toast  Toast
	hidden bool
	timer  *time.Timer
}

// NotificationManager shows queued toasts, at most MaxVisible at a time, in
// the order Show was called.
type NotificationManager struct {
	mu       sync.Mutex
	queue    []domain.NotificationItem
	active   map[string]*activeToast
	order    []string
	renderer ToastRenderer
	limit    int
	fadeOut  time.Duration
	log      *slog.Logger
}

func NewNotificationManager(renderer ToastRenderer, log *slog.Logger, opts NotificationOptions) *NotificationManager {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	limit := opts.MaxVisible
	if limit <= 0 {
		limit = DefaultMaxVisible
	}
	return &NotificationManager{
		active:   make(map[string]*activeToast),
		renderer: renderer,
		limit:    limit,
		fadeOut:  opts.FadeOut,
		log:      log,
	}
}

// Attach shows a toast for every NotificationShow event on bus.
func (m *NotificationManager) Attach(bus *events.Bus) func() {
	return events.Subscribe(bus, func(e events.ShowNotification) {
		m.Show(e.Message, e.Type, e.Duration)
	})
}

// Show enqueues a toast and returns its id. A zero duration keeps the toast
// until it is dismissed.
func (m *NotificationManager) Show(message string, typ domain.NotificationType, duration time.Duration) string {
	item := domain.NotificationItem{
		ID:       uuid.NewString(),
		Message:  message,
		Type:     typ,
		Duration: duration,
	}

	m.mu.Lock()
	m.queue = append(m.queue, item)
	m.mu.Unlock()

	m.processQueue()
	return item.ID
}

func (m *NotificationManager) processQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	for _, id := range m.order {
		if t, ok := m.active[id]; ok && !t.hidden {
			kept = append(kept, id)
		}
	}
	m.order = kept

	for len(m.order) < m.limit && len(m.queue) > 0 {
		item := m.queue[0]
		m.queue = m.queue[1:]
		m.createLocked(item)
	}
}

func (m *NotificationManager) createLocked(item domain.NotificationItem) {
	t := &activeToast{toast: Toast{NotificationItem: item, Offset: len(m.order)}}
	m.active[item.ID] = t
	m.order = append(m.order, item.ID)

	if item.Duration > 0 {
		id := item.ID
		t.timer = time.AfterFunc(item.Duration, func() { m.Dismiss(id) })
	}

	m.log.Debug("toast shown", "id", item.ID, "type", item.Type, "offset", t.toast.Offset)
	m.renderer.ShowToast(t.toast)
}

// Dismiss hides a visible toast; after the fade-out its slot is freed and
// the queue is processed again. Unknown or already hidden ids are ignored.
func (m *NotificationManager) Dismiss(id string) {
	m.mu.Lock()
	t, ok := m.active[id]
	if !ok || t.hidden {
		m.mu.Unlock()
		return
	}
	t.hidden = true
	if t.timer != nil {
		t.timer.Stop()
	}
	m.renderer.HideToast(id)
	m.mu.Unlock()

	if m.fadeOut <= 0 {
		m.remove(id)
		return
	}
	time.AfterFunc(m.fadeOut, func() { m.remove(id) })
}

func (m *NotificationManager) remove(id string) {
	m.mu.Lock()
	if _, ok := m.active[id]; ok {
		delete(m.active, id)
		m.renderer.RemoveToast(id)
	}
	m.mu.Unlock()

	m.processQueue()
}

// Clear dismisses every shown toast and drops the queue.
func (m *NotificationManager) Clear() {
	m.mu.Lock()
	m.queue = nil
	ids := make([]string, 0, len(m.active))
	for id, t := range m.active {
		if !t.hidden {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Dismiss(id)
	}
}

// Visible returns the toasts currently on screen, top first.
func (m *NotificationManager) Visible() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Toast, 0, len(m.order))
	for _, id := range m.order {
		if t, ok := m.active[id]; ok && !t.hidden {
			out = append(out, t.toast)
		}
	}
	return out
}

// Queued returns how many toasts are waiting for a slot.
func (m *NotificationManager) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
