package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"gazeta/internal/logging"
	"gazeta/internal/metrics"
)

// Store is the record store: JSON objects grouped in collections, one bbolt
// bucket per collection, with push subscriptions on every committed write.
type Store struct {
	db      *bolt.DB
	log     *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	subs   map[Collection]map[*subscriber]struct{}
	closed bool
}

type OpenOptions struct {
	Path    string // e.g. "./data/gazeta.db"
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func Open(opt OpenOptions) (*Store, error) {
	if opt.Path == "" {
		return nil, errors.New("store: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", opt.Path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, c := range Collections {
			if _, err := tx.CreateBucketIfNotExists(c.bucket()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &Store{
		db:      db,
		log:     logging.OrNop(opt.Logger).Named("store"),
		metrics: opt.Metrics,
		subs:    make(map[Collection]map[*subscriber]struct{}),
	}, nil
}

// Close ends every subscription and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c, set := range s.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(s.subs, c)
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteTo streams a consistent copy of the whole database to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var n int64
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		n, err = tx.WriteTo(w)
		return err
	})
	return n, err
}
