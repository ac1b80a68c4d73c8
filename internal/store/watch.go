package store

import (
	"context"

	"go.uber.org/zap"
)

type subscriber struct {
	ch   chan Snapshot
	last string
}

// offer replaces any undelivered snapshot with snap. Callers hold s.mu,
// so there is never a second sender. A snapshot identical to the last one
// offered is dropped.
func (sub *subscriber) offer(snap Snapshot) bool {
	if snap.Fingerprint == sub.last {
		return false
	}
	sub.last = snap.Fingerprint
	select {
	case sub.ch <- snap:
		return true
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- snap:
	default:
	}
	return true
}

// Watch subscribes to a collection. The current snapshot is delivered first,
// then a fresh one after every committed change. A slow reader only ever sees
// the latest snapshot. The channel is closed once ctx is done.
func (s *Store) Watch(ctx context.Context, c Collection) (<-chan Snapshot, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, nil
	}
	snap, err := s.Snapshot(c)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sub.offer(snap)
	if s.subs[c] == nil {
		s.subs[c] = make(map[*subscriber]struct{})
	}
	s.subs[c][sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(c, sub)
	}()
	return sub.ch, nil
}

func (s *Store) unsubscribe(c Collection, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[c]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
}

// publish pushes the current snapshot of c to every subscriber.
func (s *Store) publish(c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	snap, err := s.Snapshot(c)
	if err != nil {
		s.log.Error("snapshot after write", zap.String("collection", string(c)), zap.Error(err))
		return
	}
	pushed := 0
	for sub := range s.subs[c] {
		if sub.offer(snap) {
			pushed++
			s.metrics.SnapshotPushed(string(c))
		}
	}
	if pushed > 0 {
		s.log.Debug("snapshot pushed",
			zap.String("collection", string(c)),
			zap.Int("entries", snap.Len()),
			zap.Int("subscribers", pushed),
		)
	}
}
