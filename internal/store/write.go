package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Set creates or overwrites the record under key.
func (s *Store) Set(c Collection, key string, f Fields) error {
	if err := c.valid(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("store: %s: empty key", c)
	}
	v, err := encodeFields(f)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", c, key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket()).Put([]byte(key), v)
	})
	if err != nil {
		return fmt.Errorf("store: set %s/%s: %w", c, key, err)
	}
	s.publish(c)
	return nil
}

// Push stores f under a new time-ordered key and returns that key.
func (s *Store) Push(c Collection, f Fields) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("store: new key: %w", err)
	}
	key := id.String()
	if err := s.Set(c, key, f); err != nil {
		return "", err
	}
	return key, nil
}

// Update merges partial into the existing record. A nil value removes the field.
func (s *Store) Update(c Collection, key string, partial Fields) error {
	if err := c.valid(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket())
		cur := b.Get([]byte(key))
		if cur == nil {
			return ErrNotFound
		}
		f, err := decodeFields(cur)
		if err != nil {
			return err
		}
		for k, v := range partial {
			if v == nil {
				delete(f, k)
				continue
			}
			f[k] = v
		}
		next, err := encodeFields(f)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), next)
	})
	if err != nil {
		return fmt.Errorf("store: update %s/%s: %w", c, key, err)
	}
	s.publish(c)
	return nil
}

// Delete removes the record. Deleting a missing key is not an error.
func (s *Store) Delete(c Collection, key string) error {
	if err := c.valid(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket()).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", c, key, err)
	}
	s.publish(c)
	return nil
}

// TxFunc receives the current value of a field (nil when absent) and
// returns its replacement.
type TxFunc func(current any) (any, error)

// Transaction runs a read-modify-write of one field inside a single write
// transaction and returns the committed value.
func (s *Store) Transaction(c Collection, key, field string, fn TxFunc) (any, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	var out any
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket())
		cur := b.Get([]byte(key))
		if cur == nil {
			return ErrNotFound
		}
		f, err := decodeFields(cur)
		if err != nil {
			return err
		}
		next, err := fn(f[field])
		if err != nil {
			return err
		}
		f[field] = next
		v, err := encodeFields(f)
		if err != nil {
			return err
		}
		out = next
		return b.Put([]byte(key), v)
	})
	if err != nil {
		return nil, fmt.Errorf("store: transaction %s/%s.%s: %w", c, key, field, err)
	}
	s.publish(c)
	return out, nil
}

// Import writes many records in one transaction, overwriting existing keys.
func (s *Store) Import(c Collection, records map[string]Fields) (int, error) {
	if err := c.valid(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket())
		for key, f := range records {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			v, err := encodeFields(f)
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			if err := b.Put([]byte(key), v); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: import %s: %w", c, err)
	}
	s.publish(c)
	return n, nil
}
