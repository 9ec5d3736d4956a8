package handler

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/domain/event"
	"event-booking/internal/domain/schedule"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

type CalendarHandler struct {
	store   *usecase.Store
	session *session.Session
	views   *view.Renderer
	log     *zap.Logger
}

func NewCalendarHandler(store *usecase.Store, sess *session.Session, views *view.Renderer, log *zap.Logger) *CalendarHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CalendarHandler{store: store, session: sess, views: views, log: log}
}

func (h *CalendarHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/calendar", h.Show)
	r.Post("/calendar/book/:id", h.Book)
	r.Post("/calendar/cancel/:id", h.Cancel)
	r.Get("/calendar/export.ics", h.Export)
}

type slotView struct {
	ID       string
	Start    time.Time
	End      time.Time
	Category event.Category
	State    string // free | mine | taken
}

type dayView struct {
	Date  time.Time
	Slots []slotView
}

type calendarData struct {
	Page       view.Page
	Week       string
	PrevWeek   string
	NextWeek   string
	WeekTitle  string
	Category   string
	Categories []event.Category
	Days       []dayView
}

// parseAnchor reads the week query parameter, falling back to today so the
// default view is the current week.
func parseAnchor(raw string) time.Time {
	if raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

func parseFilter(raw string) schedule.Filter {
	if raw == "" || raw == string(schedule.FilterAll) {
		return schedule.FilterAll
	}
	if c := event.Category(raw); c.Known() {
		return schedule.Filter(c)
	}
	return schedule.FilterAll
}

func (h *CalendarHandler) Show(c fiber.Ctx) error {
	anchor := parseAnchor(c.Query("week"))
	filter := parseFilter(c.Query("category"))
	current := h.session.CurrentUser()

	days := schedule.WeekDays(anchor)
	visible := schedule.VisibleSlots(h.store.TimeSlots(), anchor, filter, current)

	currentID := ""
	if current != nil {
		currentID = current.ID
	}

	dayViews := make([]dayView, 0, len(days))
	for _, day := range days {
		dv := dayView{Date: day}
		for _, s := range schedule.SlotsOn(visible, day) {
			state := "free"
			switch {
			case s.BookedBy(currentID):
				state = "mine"
			case s.Booked():
				state = "taken"
			}
			dv.Slots = append(dv.Slots, slotView{
				ID:       s.ID,
				Start:    s.Start,
				End:      s.End,
				Category: s.Category,
				State:    state,
			})
		}
		dayViews = append(dayViews, dv)
	}

	data := calendarData{
		Page:       newPage(c, h.session, "Calendar"),
		Week:       schedule.DayKey(schedule.WeekStart(anchor)),
		PrevWeek:   schedule.DayKey(schedule.WeekStart(anchor).AddDate(0, 0, -7)),
		NextWeek:   schedule.DayKey(schedule.WeekStart(anchor).AddDate(0, 0, 7)),
		WeekTitle:  fmt.Sprintf("%s - %s", days[0].Format("Jan 2"), days[6].Format("Jan 2, 2006")),
		Category:   string(filter),
		Categories: event.KnownCategories(),
		Days:       dayViews,
	}
	return h.views.HTML(c, fiber.StatusOK, "calendar", data)
}

func (h *CalendarHandler) Book(c fiber.Ctx) error {
	slotID := c.Params("id")
	back := calendarURL(c.FormValue("week"), c.FormValue("category"))

	// A slot someone else holds offers no action; a forced request is not
	// dispatched either.
	if slot, ok := h.store.SlotByID(slotID); ok && slot.Booked() {
		setFlash(c, "error", "This slot is unavailable.")
		return redirect(c, back)
	}

	if _, err := h.store.Book(c.Context(), slotID); err != nil {
		setFlash(c, "error", userMessage(err))
		return redirect(c, back)
	}
	setFlash(c, "success", "Slot booked.")
	return redirect(c, back)
}

func (h *CalendarHandler) Cancel(c fiber.Ctx) error {
	slotID := c.Params("id")
	back := calendarURL(c.FormValue("week"), c.FormValue("category"))

	current := h.session.CurrentUser()
	if slot, ok := h.store.SlotByID(slotID); ok {
		if current == nil || !slot.BookedBy(current.ID) {
			setFlash(c, "error", "Only your own booking can be cancelled.")
			return redirect(c, back)
		}
	}

	if _, err := h.store.CancelBooking(c.Context(), slotID); err != nil {
		setFlash(c, "error", userMessage(err))
		return redirect(c, back)
	}
	setFlash(c, "success", "Booking cancelled.")
	return redirect(c, back)
}

// Export serves the visible week as an iCalendar file so bookings can be
// pulled into an external calendar.
func (h *CalendarHandler) Export(c fiber.Ctx) error {
	anchor := parseAnchor(c.Query("week"))
	filter := parseFilter(c.Query("category"))
	visible := schedule.VisibleSlots(h.store.TimeSlots(), anchor, filter, h.session.CurrentUser())

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	for _, s := range visible {
		ev := cal.AddEvent(s.ID)
		ev.SetStartAt(s.Start)
		ev.SetEndAt(s.End)
		ev.SetSummary(string(s.Category))
		if s.Booked() {
			ev.SetDescription("Booked")
		} else {
			ev.SetDescription("Available")
		}
	}

	week := schedule.DayKey(schedule.WeekStart(anchor))
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "week-"+week+".ics"))
	return c.SendString(cal.Serialize())
}
