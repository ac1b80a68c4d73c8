package notify

import (
	"context"
	"sync"
	"time"

	"gazeta/internal/metrics"
)

// DefaultDelay is how long a toast stays visible unless dismissed.
const DefaultDelay = 4 * time.Second

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

type Toast struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
}

// Listener receives the full queue, newest first, after every change.
// It runs synchronously and must not call back into the queue.
type Listener func([]Toast)

// Queue is an in-memory list of toasts with automatic expiry.
type Queue struct {
	delay   time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	// notifyMu serializes change+notify so listeners see changes in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	nextID    int64
	toasts    []Toast
	timers    map[int64]*time.Timer
	nextSub   int
	listeners map[int]Listener
}

type Option func(*Queue)

func WithDelay(d time.Duration) Option {
	return func(q *Queue) { q.delay = d }
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		delay:     DefaultDelay,
		now:       time.Now,
		timers:    make(map[int64]*time.Timer),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Post adds a toast in front of the queue and schedules its removal.
func (q *Queue) Post(title, description string, variant Variant) Toast {
	if variant == "" {
		variant = VariantDefault
	}
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	q.nextID++
	t := Toast{
		ID:          q.nextID,
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   q.now(),
	}
	q.toasts = append([]Toast{t}, q.toasts...)
	id := t.ID
	q.timers[id] = time.AfterFunc(q.delay, func() { q.expire(id) })
	snap, ls := q.snapshotLocked()
	q.mu.Unlock()

	q.metrics.ToastPosted(string(variant))
	notifyAll(ls, snap)
	return t
}

// Dismiss removes one toast and cancels its timer.
func (q *Queue) Dismiss(id int64) bool {
	return q.remove(id)
}

// DismissAll empties the queue.
func (q *Queue) DismissAll() {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
	snap, ls := q.snapshotLocked()
	q.mu.Unlock()

	notifyAll(ls, snap)
}

func (q *Queue) expire(id int64) { q.remove(id) }

func (q *Queue) remove(id int64) bool {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	idx := -1
	for i, t := range q.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.toasts = append(q.toasts[:idx:idx], q.toasts[idx+1:]...)
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	snap, ls := q.snapshotLocked()
	q.mu.Unlock()

	notifyAll(ls, snap)
	return true
}

// Snapshot returns the current toasts, newest first.
func (q *Queue) Snapshot() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Toast{}, q.toasts...)
}

// Subscribe registers l and immediately hands it the current queue.
// The returned function detaches it.
func (q *Queue) Subscribe(l Listener) func() {
	q.notifyMu.Lock()
	q.mu.Lock()
	q.nextSub++
	id := q.nextSub
	q.listeners[id] = l
	snap := append([]Toast{}, q.toasts...)
	q.mu.Unlock()
	l(snap)
	q.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.listeners, id)
			q.mu.Unlock()
		})
	}
}

// Watch adapts Subscribe to a channel. A slow reader only sees the latest
// queue. The channel is closed when ctx is done.
func (q *Queue) Watch(ctx context.Context) <-chan []Toast {
	ch := make(chan []Toast, 1)
	var mu sync.Mutex
	closed := false
	unsubscribe := q.Subscribe(func(ts []Toast) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ts:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ts:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

// idle reports whether the queue holds no toasts and nobody listens.
func (q *Queue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts) == 0 && len(q.listeners) == 0
}

func (q *Queue) snapshotLocked() ([]Toast, []Listener) {
	snap := append([]Toast{}, q.toasts...)
	ls := make([]Listener, 0, len(q.listeners))
	for _, l := range q.listeners {
		ls = append(ls, l)
	}
	return snap, ls
}

func notifyAll(ls []Listener, snap []Toast) {
	for _, l := range ls {
		l(snap)
	}
}
