package store

import (
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	domainerr "gazeta/internal/domain/errors"
)

// ErrNotFound is returned for point reads of a missing key.
var ErrNotFound = domainerr.ErrNotFound

type Entry struct {
	Key    string
	Fields Fields
}

// Snapshot is the full content of a collection at one instant, ordered by key.
type Snapshot struct {
	Collection  Collection
	Entries     []Entry
	Fingerprint string
}

// Map returns the snapshot as the raw key to fields mapping.
func (s Snapshot) Map() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.Entries))
	for _, e := range s.Entries {
		out[e.Key] = e.Fields
	}
	return out
}

func (s Snapshot) Len() int { return len(s.Entries) }

func (s *Store) Snapshot(c Collection) (Snapshot, error) {
	if err := c.valid(); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		snap, err = readSnapshot(tx, c)
		return err
	})
	return snap, err
}

func readSnapshot(tx *bolt.Tx, c Collection) (Snapshot, error) {
	snap := Snapshot{Collection: c}
	fp := newFingerprint(c)
	b := tx.Bucket(c.bucket())
	if b == nil {
		snap.Fingerprint = fp.sum()
		return snap, nil
	}
	err := b.ForEach(func(k, v []byte) error {
		f, err := decodeFields(v)
		if err != nil {
			return fmt.Errorf("store: decode %s/%s: %w", c, k, err)
		}
		fp.add(k, v)
		snap.Entries = append(snap.Entries, Entry{Key: string(k), Fields: f})
		return nil
	})
	snap.Fingerprint = fp.sum()
	return snap, err
}

// Get reads one record. A missing key yields ErrNotFound.
func (s *Store) Get(c Collection, key string) (Fields, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}
	var f Fields
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket())
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		var err error
		f, err = decodeFields(v)
		return err
	})
	return f, err
}
