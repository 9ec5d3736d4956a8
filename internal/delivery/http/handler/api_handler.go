package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"event-booking/internal/domain/schedule"
	"event-booking/internal/pkg/response"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

// APIHandler exposes the visible week as JSON for probes and tooling.
type APIHandler struct {
	store   *usecase.Store
	session *session.Session
}

func NewAPIHandler(store *usecase.Store, sess *session.Session) *APIHandler {
	return &APIHandler{store: store, session: sess}
}

func (h *APIHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/api/slots", h.Slots)
}

type apiSlot struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	UserID   string    `json:"user_id,omitempty"`
}

type apiSlotsData struct {
	WeekStart string    `json:"week_start"`
	Days      []string  `json:"days"`
	Category  string    `json:"category"`
	Slots     []apiSlot `json:"slots"`
}

func (h *APIHandler) Slots(c fiber.Ctx) error {
	anchor := parseAnchor(c.Query("week"))
	filter := parseFilter(c.Query("category"))

	days := schedule.WeekDays(anchor)
	visible := schedule.VisibleSlots(h.store.TimeSlots(), anchor, filter, h.session.CurrentUser())

	data := apiSlotsData{
		WeekStart: schedule.DayKey(days[0]),
		Category:  string(filter),
		Slots:     make([]apiSlot, 0, len(visible)),
	}
	for _, d := range days {
		data.Days = append(data.Days, schedule.DayKey(d))
	}
	for _, s := range visible {
		data.Slots = append(data.Slots, apiSlot{
			ID:       s.ID,
			Category: string(s.Category),
			Start:    s.Start,
			End:      s.End,
			UserID:   s.UserID,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}
