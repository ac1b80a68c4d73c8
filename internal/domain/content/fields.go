package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// fieldString returns the first key present with a scalar value.
func fieldString(f map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int, int64, bool:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func fieldInt(f map[string]any, keys ...string) int64 {
	for _, k := range keys {
		if n, ok := IntValue(f[k]); ok {
			return n
		}
	}
	return 0
}

// IntValue reads an integer out of a decoded JSON value.
func IntValue(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if x, err := t.Float64(); err == nil {
			return int64(x), true
		}
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// fieldStrings accepts a list, a numerically keyed object (how some
// exports serialize arrays) or a comma separated string.
func fieldStrings(f map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case []string:
			return append([]string(nil), t...)
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case map[string]any:
			idx := make([]string, 0, len(t))
			for key := range t {
				idx = append(idx, key)
			}
			sort.Slice(idx, func(i, j int) bool {
				a, errA := strconv.Atoi(idx[i])
				b, errB := strconv.Atoi(idx[j])
				if errA == nil && errB == nil {
					return a < b
				}
				return idx[i] < idx[j]
			})
			out := make([]string, 0, len(t))
			for _, key := range idx {
				if s, ok := t[key].(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			return strings.Split(t, ",")
		}
	}
	return nil
}
