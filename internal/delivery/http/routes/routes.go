package routes

import (
	"event-booking/internal/delivery/http/handler"
	"event-booking/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

// Registry wires the handler set onto a Fiber app. Auth pages and the
// health probe stay public; everything else sits behind the session
// guard and redirects to /login when no credential is held.
type Registry struct {
	guard *middleware.SessionMiddleware

	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	calendar    *handler.CalendarHandler
	admin       *handler.AdminHandler
	preferences *handler.PreferencesHandler
	api         *handler.APIHandler
}

func NewRegistry(
	guard *middleware.SessionMiddleware,
	health *handler.HealthHandler,
	auth *handler.AuthHandler,
	calendar *handler.CalendarHandler,
	admin *handler.AdminHandler,
	preferences *handler.PreferencesHandler,
	api *handler.APIHandler,
) *Registry {
	return &Registry{
		guard:       guard,
		health:      health,
		auth:        auth,
		calendar:    calendar,
		admin:       admin,
		preferences: preferences,
		api:         api,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerPublic(app)
	r.registerProtected(app)
}

func (r *Registry) registerPublic(app *fiber.App) {
	r.health.RegisterRoutes(app)
	r.auth.RegisterRoutes(app)
}

func (r *Registry) registerProtected(app *fiber.App) {
	protected := app.Group("", r.guard.Middleware())
	r.calendar.RegisterRoutes(protected)
	r.admin.RegisterRoutes(protected)
	r.preferences.RegisterRoutes(protected)
	r.api.RegisterRoutes(protected)
}
