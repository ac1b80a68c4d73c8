package tags

import "strings"

// Key is an input event of the tag field.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyComma     Key = ","
	KeyBackspace Key = "Backspace"
)

// Editor holds an ordered list of unique, non-empty tags and the text typed
// so far. The zero value is an empty editor.
type Editor struct {
	tags   []string
	buffer string
}

// New starts an editor from existing tags, dropping blanks and duplicates.
func New(initial []string) *Editor {
	e := &Editor{}
	for _, t := range initial {
		e.Add(t)
	}
	return e
}

// FromText starts an editor from a comma separated list.
func FromText(s string) *Editor {
	return New(strings.Split(s, ","))
}

func (e *Editor) Tags() []string {
	out := make([]string, len(e.tags))
	copy(out, e.tags)
	return out
}

func (e *Editor) Buffer() string { return e.buffer }

func (e *Editor) SetBuffer(s string) { e.buffer = s }

// Text is the comma separated form of the tags.
func (e *Editor) Text() string { return strings.Join(e.tags, ", ") }

// Add appends t unless it is blank or already present.
func (e *Editor) Add(t string) bool {
	t = strings.TrimSpace(t)
	if t == "" || e.Has(t) {
		return false
	}
	e.tags = append(e.tags, t)
	return true
}

func (e *Editor) Has(t string) bool {
	for _, x := range e.tags {
		if x == t {
			return true
		}
	}
	return false
}

// Remove deletes t if present.
func (e *Editor) Remove(t string) bool {
	for i, x := range e.tags {
		if x == t {
			e.tags = append(e.tags[:i], e.tags[i+1:]...)
			return true
		}
	}
	return false
}

// Press applies one key. It reports whether the key was consumed, in which
// case the browser's default action should be suppressed.
func (e *Editor) Press(k Key) bool {
	switch k {
	case KeyEnter, KeyComma:
		if strings.TrimSpace(e.buffer) == "" {
			return k == KeyEnter
		}
		e.Add(e.buffer)
		e.buffer = ""
		return true
	case KeyBackspace:
		if e.buffer != "" || len(e.tags) == 0 {
			return false
		}
		e.tags = e.tags[:len(e.tags)-1]
		return true
	}
	return false
}
