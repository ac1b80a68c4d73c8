package notify

import (
	"sync"
	"time"
)

// IdleTTL is how long an empty, unwatched session queue is kept.
const IdleTTL = 10 * time.Minute

type session struct {
	q    *Queue
	used time.Time
}

// Registry hands out one queue per admin session. Queues that stay empty
// with no listeners for IdleTTL are forgotten, so expired sessions do not
// pile up.
type Registry struct {
	opts []Option
	now  func() time.Time

	mu        sync.Mutex
	queues    map[string]*session
	lastSweep time.Time
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, now: time.Now, queues: make(map[string]*session)}
}

// For returns the queue of session, creating it on first use.
func (r *Registry) For(id string) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) >= IdleTTL {
		r.sweepLocked(now)
	}
	s, ok := r.queues[id]
	if !ok {
		s = &session{q: NewQueue(r.opts...)}
		r.queues[id] = s
	}
	s.used = now
	return s.q
}

// Drop clears and forgets the queue of session.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	s, ok := r.queues[id]
	delete(r.queues, id)
	r.mu.Unlock()
	if ok {
		s.q.DismissAll()
	}
}

// Len is the number of sessions with a queue.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queues)
}

func (r *Registry) sweepLocked(now time.Time) {
	r.lastSweep = now
	for id, s := range r.queues {
		if now.Sub(s.used) >= IdleTTL && s.q.idle() {
			delete(r.queues, id)
		}
	}
}
