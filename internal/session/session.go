package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
)

// CredentialStore persists the single bearer credential across restarts.
// Load returns an empty token when nothing is stored.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

var ErrNoCredential = errors.New("no stored credential")

// Session holds the process-wide authentication credential and the
// authenticated identity. It is passed explicitly to the layers that need
// it; there is no package-level token.
//
// The state machine is two-state: unauthenticated until Begin, back to
// unauthenticated on End. There is no refresh or expiry handling — an
// expired credential simply makes remote calls fail.
type Session struct {
	mu    sync.RWMutex
	creds CredentialStore
	log   *zap.Logger

	token   string
	current *user.User
}

func New(creds CredentialStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{creds: creds, log: log}
}

// Restore reads the persisted credential once at startup. It returns
// ErrNoCredential when none is stored; the caller stays unauthenticated.
func (s *Session) Restore() error {
	token, err := s.creds.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoCredential
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logClaims(token, "session restored")
	return nil
}

// Begin transitions to the authenticated state and persists the credential
// so a restart restores it.
func (s *Session) Begin(token string) error {
	if token == "" {
		return errors.New("empty credential")
	}
	if err := s.creds.Save(token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logClaims(token, "session started")
	return nil
}

// End clears the persisted credential and the in-memory identity.
func (s *Session) End() error {
	s.mu.Lock()
	s.token = ""
	s.current = nil
	s.mu.Unlock()

	return s.creds.Clear()
}

// Token implements the remote layer's token source. Empty while
// unauthenticated; the service rejects such requests and the rejection is
// surfaced unchanged.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// CurrentUser returns a copy of the active identity, or nil before the
// first successful fetch. In this deployment it is always the
// authenticated account; there is no multi-user switching.
func (s *Session) CurrentUser() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	u.Preferences = append([]event.Category(nil), s.current.Preferences...)
	return &u
}

func (s *Session) SetCurrentUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &u
}

// logClaims decodes the token without verifying it — the service is the
// sole verifier — purely to log who the session belongs to and when the
// credential expires.
func (s *Session) logClaims(token, msg string) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		s.log.Info(msg)
		return
	}

	fields := make([]zap.Field, 0, 2)
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fields = append(fields, zap.String("subject", sub))
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		fields = append(fields, zap.Time("expires_at", exp.Time))
		if exp.Before(time.Now()) {
			s.log.Warn("stored credential already expired; remote calls will fail until re-login",
				zap.Time("expires_at", exp.Time))
		}
	}
	s.log.Info(msg, fields...)
}
