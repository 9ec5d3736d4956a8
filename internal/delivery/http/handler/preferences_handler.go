package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/domain/event"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

type PreferencesHandler struct {
	store   *usecase.Store
	session *session.Session
	views   *view.Renderer
	log     *zap.Logger
}

func NewPreferencesHandler(store *usecase.Store, sess *session.Session, views *view.Renderer, log *zap.Logger) *PreferencesHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PreferencesHandler{store: store, session: sess, views: views, log: log}
}

func (h *PreferencesHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/preferences", h.Show)
	r.Post("/preferences", h.Save)
}

type preferenceOption struct {
	Category event.Category
	Selected bool
}

type preferencesData struct {
	Page    view.Page
	Options []preferenceOption
}

func (h *PreferencesHandler) Show(c fiber.Ctx) error {
	current := h.session.CurrentUser()

	options := make([]preferenceOption, 0, len(event.KnownCategories()))
	for _, cat := range event.KnownCategories() {
		selected := current != nil && current.Prefers(cat)
		options = append(options, preferenceOption{Category: cat, Selected: selected})
	}

	data := preferencesData{
		Page:    newPage(c, h.session, "User Preferences"),
		Options: options,
	}
	return h.views.HTML(c, fiber.StatusOK, "preferences", data)
}

func (h *PreferencesHandler) Save(c fiber.Ctx) error {
	current := h.session.CurrentUser()
	if current == nil {
		setFlash(c, "error", "No user is selected.")
		return redirect(c, "/preferences")
	}

	var selected []event.Category
	for _, v := range c.Request().PostArgs().PeekMulti("categories") {
		selected = append(selected, event.Category(v))
	}

	// At least one category must be selected before anything is sent.
	if len(selected) == 0 {
		setFlash(c, "error", "Please select at least one preference.")
		return redirect(c, "/preferences")
	}

	if _, err := h.store.UpdatePreferences(c.Context(), current.ID, selected); err != nil {
		h.log.Warn("preference update failed", zap.Error(err))
		setFlash(c, "error", "Failed to save preferences. Please try again later.")
		return redirect(c, "/preferences")
	}
	setFlash(c, "success", "Your event preferences have been updated successfully.")
	return redirect(c, "/preferences")
}
