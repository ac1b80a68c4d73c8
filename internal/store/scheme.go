package store

import "fmt"

type Collection string

const (
	Articles Collection = "articles"
	Issues   Collection = "issues"
	Users    Collection = "users"
)

var Collections = []Collection{Articles, Issues, Users}

func (c Collection) bucket() []byte { return []byte(c) }

func (c Collection) valid() error {
	for _, known := range Collections {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("store: unknown collection %q", string(c))
}
