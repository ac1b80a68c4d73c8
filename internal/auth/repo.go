package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"gazeta/internal/domain/content"
	"gazeta/internal/store"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	TokenVersion int64
}

// Repo keeps admin users in the users collection of the record store.
type Repo struct {
	store *store.Store
}

func NewRepo(s *store.Store) *Repo {
	return &Repo{store: s}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userFromFields(key string, f store.Fields) *User {
	u := &User{ID: key}
	u.Email, _ = f["email"].(string)
	u.PasswordHash, _ = f["password_hash"].(string)
	u.TokenVersion, _ = content.IntValue(f["token_version"])
	return u
}

func (u *User) fields() store.Fields {
	return store.Fields{
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"token_version": u.TokenVersion,
	}
}

func (r *Repo) GetByID(id string) (*User, error) {
	f, err := r.store.Get(store.Users, id)
	if err != nil {
		return nil, err
	}
	return userFromFields(id, f), nil
}

// GetByEmail scans the users collection; it holds a handful of editors.
func (r *Repo) GetByEmail(email string) (*User, error) {
	email = normalizeEmail(email)
	snap, err := r.store.Snapshot(store.Users)
	if err != nil {
		return nil, err
	}
	for _, e := range snap.Entries {
		if got, _ := e.Fields["email"].(string); normalizeEmail(got) == email {
			return userFromFields(e.Key, e.Fields), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Repo) Create(u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)
	return r.store.Set(store.Users, u.ID, u.fields())
}

func (r *Repo) UpdatePasswordHash(id, hash string) error {
	return r.store.Update(store.Users, id, store.Fields{"password_hash": hash})
}

// BumpTokenVersion invalidates every token issued to the user so far.
func (r *Repo) BumpTokenVersion(id string) error {
	_, err := r.store.Transaction(store.Users, id, "token_version", func(cur any) (any, error) {
		n, _ := content.IntValue(cur)
		return n + 1, nil
	})
	return err
}

func (r *Repo) GetTokenVersion(id string) (int64, error) {
	u, err := r.GetByID(id)
	if err != nil {
		return 0, err
	}
	return u.TokenVersion, nil
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
