package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/domain/event"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

type AdminHandler struct {
	store   *usecase.Store
	session *session.Session
	views   *view.Renderer
	log     *zap.Logger
}

func NewAdminHandler(store *usecase.Store, sess *session.Session, views *view.Renderer, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{store: store, session: sess, views: views, log: log}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/admin", h.Show)
	r.Post("/admin/slots", h.Create)
	r.Get("/admin/slots/:id/edit", h.EditForm)
	r.Post("/admin/slots/:id", h.Save)
	r.Post("/admin/slots/:id/delete", h.Delete)
}

type adminSlotView struct {
	ID       string
	Category event.Category
	Start    time.Time
	End      time.Time
	BookedBy string
}

type slotDraft struct {
	Category string
	Start    string
	End      string
}

// newSlotDraft is the creation form's reset state: first category, start
// and end at the current time.
func newSlotDraft() slotDraft {
	now := time.Now().Format("2006-01-02T15:04")
	return slotDraft{
		Category: string(event.KnownCategories()[0]),
		Start:    now,
		End:      now,
	}
}

type adminData struct {
	Page       view.Page
	Categories []event.Category
	Draft      slotDraft
	Slots      []adminSlotView
}

func (h *AdminHandler) Show(c fiber.Ctx) error {
	slots := h.store.TimeSlots()
	views := make([]adminSlotView, 0, len(slots))
	for _, s := range slots {
		bookedBy := "Not booked"
		if s.Booked() {
			bookedBy = "Unknown"
			if u, ok := h.store.UserByID(s.UserID); ok {
				bookedBy = u.Name
			}
		}
		views = append(views, adminSlotView{
			ID:       s.ID,
			Category: s.Category,
			Start:    s.Start,
			End:      s.End,
			BookedBy: bookedBy,
		})
	}

	data := adminData{
		Page:       newPage(c, h.session, "Admin"),
		Categories: event.KnownCategories(),
		Draft:      newSlotDraft(),
		Slots:      views,
	}
	return h.views.HTML(c, fiber.StatusOK, "admin", data)
}

// parseFormTime reads a datetime-local form value in the client's zone.
func parseFormTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (h *AdminHandler) Create(c fiber.Ctx) error {
	category := event.Category(c.FormValue("category"))
	start, okStart := parseFormTime(c.FormValue("start"))
	end, okEnd := parseFormTime(c.FormValue("end"))

	// All three fields must be present before anything is dispatched.
	if category == "" || !okStart || !okEnd {
		setFlash(c, "error", "Category, start and end are required.")
		return redirect(c, "/admin")
	}

	if _, err := h.store.AddSlot(c.Context(), category, start, end); err != nil {
		setFlash(c, "error", userMessage(err))
		return redirect(c, "/admin")
	}
	setFlash(c, "success", "Time slot added.")
	return redirect(c, "/admin")
}

type adminEditData struct {
	Page       view.Page
	Categories []event.Category
	Slot       event.TimeSlot
}

func (h *AdminHandler) EditForm(c fiber.Ctx) error {
	slot, ok := h.store.SlotByID(c.Params("id"))
	if !ok {
		setFlash(c, "error", "Time slot not found.")
		return redirect(c, "/admin")
	}

	data := adminEditData{
		Page:       newPage(c, h.session, "Edit Time Slot"),
		Categories: event.KnownCategories(),
		Slot:       slot,
	}
	return h.views.HTML(c, fiber.StatusOK, "admin_edit", data)
}

// Save commits an edited draft. The draft starts from the local copy so
// fields the form does not carry (ownership) survive the edit.
func (h *AdminHandler) Save(c fiber.Ctx) error {
	draft, ok := h.store.SlotByID(c.Params("id"))
	if !ok {
		setFlash(c, "error", "Time slot not found.")
		return redirect(c, "/admin")
	}

	if v := c.FormValue("category"); v != "" {
		draft.Category = event.Category(v)
	}
	if t, ok := parseFormTime(c.FormValue("start")); ok {
		draft.Start = t
	}
	if t, ok := parseFormTime(c.FormValue("end")); ok {
		draft.End = t
	}

	if _, err := h.store.EditSlot(c.Context(), draft); err != nil {
		setFlash(c, "error", userMessage(err))
		return redirect(c, "/admin")
	}
	setFlash(c, "success", "Time slot updated.")
	return redirect(c, "/admin")
}

// Delete requires the confirmation field the form sets after the user
// accepts the prompt; without it no request is issued.
func (h *AdminHandler) Delete(c fiber.Ctx) error {
	if c.FormValue("confirm") != "yes" {
		setFlash(c, "error", "Deletion must be confirmed.")
		return redirect(c, "/admin")
	}

	if err := h.store.DeleteSlot(c.Context(), c.Params("id")); err != nil {
		setFlash(c, "error", userMessage(err))
		return redirect(c, "/admin")
	}
	setFlash(c, "success", "Time slot deleted.")
	return redirect(c, "/admin")
}
