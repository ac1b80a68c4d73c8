package store

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// fingerprint hashes the ordered (key, payload) pairs of a collection.
type fingerprint struct {
	h hash.Hash
}

func newFingerprint(c Collection) *fingerprint {
	f := &fingerprint{h: sha256.New()}
	f.h.Write([]byte(c))
	f.h.Write([]byte{0})
	return f
}

func (f *fingerprint) add(key, payload []byte) {
	f.h.Write(key)
	f.h.Write([]byte{0})
	f.h.Write(payload)
	f.h.Write([]byte{0})
}

func (f *fingerprint) sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}
