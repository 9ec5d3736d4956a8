package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/config"
	"event-booking/internal/delivery/http/handler"
	"event-booking/internal/delivery/http/middleware"
	"event-booking/internal/delivery/http/routes"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: c.Config.App.AppName,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// Pick up a credential left by a previous run before serving pages,
	// so the first request already sees the restored session.
	restoreCtx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
	c.Auth.RestoreSession(restoreCtx)
	cancel()

	if c.Refresher != nil {
		c.Refresher.Start()
	}

	app := New(c)
	cleanup := func() error {
		if c.Refresher != nil {
			c.Refresher.Stop()
		}
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(c.Views, c.Log)
	app.Use(errMw.Middleware())

	accessLog := middleware.NewAccessLogMiddleware(c.Log)
	app.Use(accessLog.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	registry := routes.NewRegistry(
		middleware.NewSessionMiddleware(c.Session),
		handler.NewHealthHandler(),
		handler.NewAuthHandler(c.Auth, c.Session, c.Views, c.Log),
		handler.NewCalendarHandler(c.Store, c.Session, c.Views, c.Log),
		handler.NewAdminHandler(c.Store, c.Session, c.Views, c.Log),
		handler.NewPreferencesHandler(c.Store, c.Session, c.Views, c.Log),
		handler.NewAPIHandler(c.Store, c.Session),
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
