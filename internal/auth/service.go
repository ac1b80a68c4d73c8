package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domainerr "gazeta/internal/domain/errors"
	"gazeta/internal/logging"
	"gazeta/internal/metrics"
)

// ErrInvalidCredentials is returned by SignIn without saying which part failed.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domainerr.ErrUnauthorized)

// Session is an authenticated admin session.
type Session struct {
	ID        string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type Service struct {
	Repo    *Repo
	Tokens  TokenService
	Cost    int
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(repo *Repo, tokens TokenService, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		Repo:    repo,
		Tokens:  tokens,
		Cost:    bcrypt.DefaultCost,
		log:     logging.OrNop(log).Named("auth"),
		metrics: m,
	}
}

// SignIn checks the password and issues a session token.
func (s *Service) SignIn(email, password string) (Session, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.SignIn(false)
		return Session{}, "", ErrInvalidCredentials
	}

	u, err := s.Repo.GetByEmail(email)
	if err != nil {
		s.metrics.SignIn(false)
		if isNotFound(err) {
			s.log.Info("sign-in rejected", zap.String("email", email), zap.String("reason", "unknown user"))
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", fmt.Errorf("sign in: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.metrics.SignIn(false)
		s.log.Info("sign-in rejected", zap.String("email", email), zap.String("reason", "bad password"))
		return Session{}, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	token, exp, err := s.Tokens.Sign(u, sid)
	if err != nil {
		s.metrics.SignIn(false)
		return Session{}, "", err
	}
	s.metrics.SignIn(true)
	s.log.Info("signed in", zap.String("email", email), zap.String("session", sid))
	return Session{ID: sid, UserID: u.ID, Email: u.Email, ExpiresAt: exp}, token, nil
}

// SessionFromToken resolves a token into the session it was issued for.
// Tokens issued before the user's last sign-out are rejected.
func (s *Service) SessionFromToken(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, domainerr.ErrUnauthorized
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", domainerr.ErrUnauthorized, err)
	}
	version, err := s.Repo.GetTokenVersion(claims.UserID)
	if err != nil || version != claims.TokenVersion {
		return Session{}, domainerr.ErrUnauthorized
	}
	sess := Session{ID: claims.ID, UserID: claims.UserID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// SignOut revokes every outstanding token of the session's user.
func (s *Service) SignOut(sess Session) error {
	if err := s.Repo.BumpTokenVersion(sess.UserID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.log.Info("signed out", zap.String("email", sess.Email), zap.String("session", sess.ID))
	return nil
}

// EnsureUser creates the user, or resets its password when it already exists.
func (s *Service) EnsureUser(email, password string) error {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 || len(password) > 72 {
		return fmt.Errorf("ensure user: email required and password must be 8-72 chars: %w", domainerr.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Repo.GetByEmail(email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return nil
		}
		return s.Repo.UpdatePasswordHash(u.ID, string(hash))
	case errors.Is(err, domainerr.ErrNotFound):
		s.log.Info("creating admin user", zap.String("email", email))
		return s.Repo.Create(&User{Email: email, PasswordHash: string(hash)})
	default:
		return err
	}
}
