package articles

import "sync"

// Guard allows one write in flight per session.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Acquire marks the session busy. When it already is, ok is false and the
// write must be refused.
func (g *Guard) Acquire(session string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.busy[session]; taken {
		return nil, false
	}
	g.busy[session] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, session)
			g.mu.Unlock()
		})
	}, true
}
