package issue

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	domainerr "gazeta/internal/domain/errors"
)

// Source opens the PDF file of an issue by its stored file name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

// ObjectOpener is the part of the media client an ObjectSource needs.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// ObjectSource reads PDFs from object storage under Prefix.
type ObjectSource struct {
	Objects ObjectOpener
	Prefix  string
}

func (s ObjectSource) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, 0, err
	}
	return s.Objects.Open(ctx, path.Join(s.Prefix, clean))
}

// DirSource reads PDFs from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.Dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, domainerr.ErrNotFound
		}
		return nil, 0, fmt.Errorf("issue: open %s: %w", clean, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

// CleanName accepts a bare file name or a relative path without "..".
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.TrimPrefix(name, "/"))
	if name == "" {
		return "", domainerr.ErrNotFound
	}
	clean := path.Clean(name)
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, "/../") {
		return "", domainerr.ErrNotFound
	}
	return clean, nil
}

// IsExternal reports whether a stored PDF reference is a full URL that the
// browser should fetch directly.
func IsExternal(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ValidID rejects issue ids that look like file names; "/revista/x.pdf" is
// a stale link to a file, not an issue.
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && !strings.HasSuffix(strings.ToLower(id), ".pdf")
}
