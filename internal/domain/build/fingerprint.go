package build

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint identifies the inputs of a generated file. Two runs with the
// same RenderHash produce the same bytes.
type Fingerprint struct {
	ContentHash string
	ConfigHash  string
	FormatHash  string
	RenderHash  string
}

func (f *Fingerprint) ComputeRenderHash() {
	h := sha256.New()
	h.Write([]byte(f.ContentHash))
	h.Write([]byte{0})
	h.Write([]byte(f.ConfigHash))
	h.Write([]byte{0})
	h.Write([]byte(f.FormatHash))
	f.RenderHash = hex.EncodeToString(h.Sum(nil))
}

// HashStrings hashes parts with a separator so ("ab","c") and ("a","bc") differ.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
