package app

import (
	"fmt"

	"go.uber.org/zap"

	"event-booking/internal/config"
	"event-booking/internal/delivery/http/view"
	"event-booking/internal/infrastructure/booking"
	"event-booking/internal/infrastructure/credstore"
	"event-booking/internal/scheduler"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

// Container holds the long-lived pieces of the client: the session,
// the remote booking client, the shared state store, and the optional
// background refresher.
type Container struct {
	Config    config.Config
	Log       *zap.Logger
	Session   *session.Session
	Remote    booking.Client
	Store     *usecase.Store
	Auth      *usecase.Auth
	Refresher *scheduler.Refresher
	Views     *view.Renderer

	closers []func() error
}

func NewContainer(cfg config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	creds, err := c.newCredentialStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	c.Session = session.New(creds, log)
	c.Remote = booking.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, c.Session, log)
	c.Store = usecase.NewStore(c.Remote, c.Session, log)
	c.Auth = usecase.NewAuth(c.Remote, c.Session, c.Store, log)

	c.Views, err = view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	if cron := cfg.App.RefreshCron; cron != "" {
		c.Refresher, err = scheduler.New(cron, c.Store, c.Session, log)
		if err != nil {
			return nil, fmt.Errorf("refresh schedule %q: %w", cron, err)
		}
	}

	return c, nil
}

func (c *Container) newCredentialStore(cfg config.SessionConfig) (session.CredentialStore, error) {
	switch cfg.Storage {
	case "file":
		return credstore.NewFile(cfg.TokenFile), nil
	case "redis":
		store, err := credstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session storage %q", cfg.Storage)
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
