package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"event-booking/internal/infrastructure/booking"
	"event-booking/internal/session"
)

var ErrInvalidInput = errors.New("invalid input")

// Auth drives the session state machine: login and register obtain a
// credential from the service and trigger the initial data fetch, logout
// clears the credential and the local state.
type Auth struct {
	remote  booking.Client
	session *session.Session
	store   *Store
	log     *zap.Logger
}

func NewAuth(remote booking.Client, sess *session.Session, store *Store, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{remote: remote, session: sess, store: store, log: log}
}

func (a *Auth) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	token, err := a.remote.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.session.Begin(token); err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		// Authenticated but without data; the next page load retries the
		// fetch. The error still reaches the user as a notification.
		a.log.Warn("initial fetch after login failed", zap.Error(err))
		return err
	}
	return nil
}

// Register creates the account and immediately logs it in.
func (a *Auth) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return ErrInvalidInput
	}

	if _, err := a.remote.Register(ctx, name, email, password); err != nil {
		return err
	}
	return a.Login(ctx, email, password)
}

func (a *Auth) Logout() error {
	a.store.Clear()
	return a.session.End()
}

// RestoreSession re-enters the authenticated state from the persisted
// credential at startup. A missing credential is not an error; a failed
// fetch keeps the session but leaves the collections empty until the next
// successful refresh.
func (a *Auth) RestoreSession(ctx context.Context) {
	if err := a.session.Restore(); err != nil {
		if !errors.Is(err, session.ErrNoCredential) {
			a.log.Warn("credential restore failed", zap.Error(err))
		}
		return
	}
	if err := a.store.Refresh(ctx); err != nil {
		a.log.Warn("fetch after session restore failed", zap.Error(err))
	}
}
