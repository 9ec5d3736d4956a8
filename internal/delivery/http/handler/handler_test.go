package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"event-booking/internal/delivery/http/handler"
	"event-booking/internal/delivery/http/middleware"
	"event-booking/internal/delivery/http/routes"
	"event-booking/internal/delivery/http/view"
	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
	"event-booking/internal/infrastructure/booking"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

type memCreds struct{ token string }

func (m *memCreds) Load() (string, error) { return m.token, nil }
func (m *memCreds) Save(t string) error   { m.token = t; return nil }
func (m *memCreds) Clear() error          { m.token = ""; return nil }

// mockRemote scripts the booking service and records the order of calls,
// so a test can assert that a rejected form never reached the network.
type mockRemote struct {
	users []user.User
	slots []event.TimeSlot

	loginToken string
	loginErr   error
	bookResult event.TimeSlot
	bookErr    error
	deleteErr  error

	calls []string
}

func (m *mockRemote) record(name string) { m.calls = append(m.calls, name) }

func (m *mockRemote) Login(_ context.Context, _, _ string) (string, error) {
	m.record("login")
	return m.loginToken, m.loginErr
}

func (m *mockRemote) Register(_ context.Context, name, email, _ string) (user.User, error) {
	m.record("register")
	return user.User{ID: "new", Name: name, Email: email}, nil
}

func (m *mockRemote) FetchUsers(context.Context) ([]user.User, error) {
	m.record("fetchUsers")
	return m.users, nil
}

func (m *mockRemote) FetchTimeSlots(context.Context) ([]event.TimeSlot, error) {
	m.record("fetchTimeSlots")
	return m.slots, nil
}

func (m *mockRemote) UpdatePreferences(_ context.Context, _ string, prefs []event.Category) (user.User, error) {
	m.record("updatePreferences")
	u := m.users[0]
	u.Preferences = prefs
	return u, nil
}

func (m *mockRemote) Book(_ context.Context, _ string) (event.TimeSlot, error) {
	m.record("book")
	return m.bookResult, m.bookErr
}

func (m *mockRemote) Cancel(_ context.Context, _ string) (event.TimeSlot, error) {
	m.record("cancel")
	return event.TimeSlot{}, nil
}

func (m *mockRemote) CreateSlot(_ context.Context, slot event.TimeSlot) (event.TimeSlot, error) {
	m.record("createSlot")
	return slot, nil
}

func (m *mockRemote) UpdateSlot(_ context.Context, slot event.TimeSlot) (event.TimeSlot, error) {
	m.record("updateSlot")
	return slot, nil
}

func (m *mockRemote) DeleteSlot(_ context.Context, _ string) error {
	m.record("deleteSlot")
	return m.deleteErr
}

var _ booking.Client = (*mockRemote)(nil)

func newTestApp(t *testing.T, remote *mockRemote) (*fiber.App, *session.Session, *usecase.Store) {
	t.Helper()

	sess := session.New(&memCreds{}, nil)
	store := usecase.NewStore(remote, sess, nil)
	auth := usecase.NewAuth(remote, sess, store, nil)

	views, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	app := fiber.New(fiber.Config{})
	errMw := middleware.NewErrorMiddleware(views, nil)
	app.Use(errMw.Middleware())

	routes.NewRegistry(
		middleware.NewSessionMiddleware(sess),
		handler.NewHealthHandler(),
		handler.NewAuthHandler(auth, sess, views, nil),
		handler.NewCalendarHandler(store, sess, views, nil),
		handler.NewAdminHandler(store, sess, views, nil),
		handler.NewPreferencesHandler(store, sess, views, nil),
		handler.NewAPIHandler(store, sess),
	).Register(app)

	return app, sess, store
}

// signIn seeds the session and store the way a completed login would.
func signIn(t *testing.T, sess *session.Session, store *usecase.Store) {
	t.Helper()

	if err := sess.Begin("test-token"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func flashMessage(t *testing.T, resp *http.Response) string {
	t.Helper()

	for _, ck := range resp.Cookies() {
		if ck.Name != "flash" || ck.Value == "" {
			continue
		}
		decoded, err := url.QueryUnescape(ck.Value)
		if err != nil {
			t.Fatalf("flash cookie: %v", err)
		}
		_, msg, _ := strings.Cut(decoded, "|")
		return msg
	}
	return ""
}

func weekUser() user.User {
	return user.User{
		ID:          "u1",
		Name:        "Alice",
		Email:       "alice@example.com",
		Preferences: []event.Category{event.CategoryOne, event.CategoryTwo},
	}
}

func weekSlot(id string, userID string) event.TimeSlot {
	start := time.Date(2024, 6, 12, 10, 0, 0, 0, time.Local)
	return event.TimeSlot{ID: id, Category: event.CategoryOne, Start: start, End: start.Add(time.Hour), UserID: userID}
}

func TestLogin_SuccessRedirectsToCalendar(t *testing.T) {
	remote := &mockRemote{loginToken: "tok", users: []user.User{weekUser()}}
	app, sess, _ := newTestApp(t, remote)

	resp := postForm(t, app, "/login", url.Values{"email": {"alice@example.com"}, "password": {"secret"}})
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/calendar" {
		t.Fatalf("expected redirect to /calendar, got %q", loc)
	}
	if !sess.Authenticated() {
		t.Fatalf("session not authenticated after login")
	}
	if u := sess.CurrentUser(); u == nil || u.ID != "u1" {
		t.Fatalf("current user not set: %v", u)
	}
}

func TestLogin_RejectionKeepsSessionClosed(t *testing.T) {
	remote := &mockRemote{loginErr: &booking.APIError{Status: 401, Message: "Incorrect email or password"}}
	app, sess, _ := newTestApp(t, remote)

	resp := postForm(t, app, "/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong"}})
	defer resp.Body.Close()

	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect back to /login, got %q", loc)
	}
	if sess.Authenticated() {
		t.Fatalf("session authenticated after rejected login")
	}
	if msg := flashMessage(t, resp); msg != "Incorrect email or password" {
		t.Fatalf("expected the service's own words, got %q", msg)
	}
}

func TestSessionGuard(t *testing.T) {
	app, _, _ := newTestApp(t, &mockRemote{})

	resp := get(t, app, "/calendar")
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected page redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	apiResp := get(t, app, "/api/slots")
	defer apiResp.Body.Close()
	if apiResp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for API path, got %d", apiResp.StatusCode)
	}
}

func TestCalendar_EmptyWeekShowsPlaceholder(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := get(t, app, "/calendar?week=2024-06-12")
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "No events scheduled") {
		t.Fatalf("empty day missing placeholder text")
	}
}

func TestCalendar_BookableSlotRendered(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := get(t, app, "/calendar?week=2024-06-12")
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/calendar/book/s1") {
		t.Fatalf("free slot has no booking form")
	}
}

func TestCalendar_BookTakenSlotNotDispatched(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "someone-else")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)
	remote.calls = nil

	resp := postForm(t, app, "/calendar/book/s1", url.Values{})
	defer resp.Body.Close()

	for _, call := range remote.calls {
		if call == "book" {
			t.Fatalf("booking a taken slot reached the service")
		}
	}
	if msg := flashMessage(t, resp); msg != "This slot is unavailable." {
		t.Fatalf("unexpected flash %q", msg)
	}
}

func TestCalendar_CancelForeignBookingRejected(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "someone-else")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)
	remote.calls = nil

	resp := postForm(t, app, "/calendar/cancel/s1", url.Values{})
	defer resp.Body.Close()

	for _, call := range remote.calls {
		if call == "cancel" {
			t.Fatalf("cancelling a foreign booking reached the service")
		}
	}
}

func TestPreferences_NoSelectionNotDispatched(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)
	remote.calls = nil

	resp := postForm(t, app, "/preferences", url.Values{})
	defer resp.Body.Close()

	if len(remote.calls) != 0 {
		t.Fatalf("empty selection dispatched calls: %v", remote.calls)
	}
	if msg := flashMessage(t, resp); msg != "Please select at least one preference." {
		t.Fatalf("unexpected flash %q", msg)
	}
}

func TestPreferences_SaveUpdatesSessionIdentity(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := postForm(t, app, "/preferences", url.Values{"categories": {"Cat 3"}})
	defer resp.Body.Close()

	if resp.Header.Get("Location") != "/preferences" {
		t.Fatalf("expected redirect to /preferences, got %q", resp.Header.Get("Location"))
	}
	u := sess.CurrentUser()
	if u == nil || len(u.Preferences) != 1 || u.Preferences[0] != event.CategoryThree {
		t.Fatalf("session identity not updated: %+v", u)
	}
}

func TestAdmin_DeleteWithoutConfirmNotDispatched(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)
	remote.calls = nil

	resp := postForm(t, app, "/admin/slots/s1/delete", url.Values{})
	defer resp.Body.Close()

	if len(remote.calls) != 0 {
		t.Fatalf("unconfirmed delete dispatched calls: %v", remote.calls)
	}
	if _, ok := store.SlotByID("s1"); !ok {
		t.Fatalf("slot removed without confirmation")
	}
}

func TestAdmin_ConfirmedDeleteRemovesSlot(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := postForm(t, app, "/admin/slots/s1/delete", url.Values{"confirm": {"yes"}})
	defer resp.Body.Close()

	if _, ok := store.SlotByID("s1"); ok {
		t.Fatalf("slot still present after confirmed delete")
	}
}

func TestAdmin_CreateMissingFieldsNotDispatched(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)
	remote.calls = nil

	resp := postForm(t, app, "/admin/slots", url.Values{"category": {"Cat 1"}})
	defer resp.Body.Close()

	if len(remote.calls) != 0 {
		t.Fatalf("incomplete form dispatched calls: %v", remote.calls)
	}
}

func TestAdmin_CreateAddsSlot(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	form := url.Values{
		"category": {"Cat 2"},
		"start":    {"2024-06-12T10:00"},
		"end":      {"2024-06-12T11:00"},
	}
	resp := postForm(t, app, "/admin/slots", form)
	defer resp.Body.Close()

	slots := store.TimeSlots()
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Category != event.CategoryTwo || slots[0].ID == "" {
		t.Fatalf("slot not created as submitted: %+v", slots[0])
	}
}

func TestAdmin_CreateFormResetsToDefaults(t *testing.T) {
	remote := &mockRemote{users: []user.User{weekUser()}}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	form := url.Values{
		"category": {"Cat 2"},
		"start":    {"2024-06-12T10:00"},
		"end":      {"2024-06-12T11:00"},
	}
	resp := postForm(t, app, "/admin/slots", form)
	resp.Body.Close()

	page := get(t, app, "/admin")
	defer page.Body.Close()

	body, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(body), `value="Cat 1" selected`) {
		t.Fatalf("create form not reset to the first category")
	}
	if strings.Contains(string(body), `value="Cat 2" selected`) {
		t.Fatalf("create form kept the submitted category")
	}
}

func TestAPISlots_ReturnsVisibleWeek(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", ""), weekSlot("s2", "u1")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := get(t, app, "/api/slots?week=2024-06-12&category=Cat%201")
	defer resp.Body.Close()

	var envelope struct {
		Status int `json:"status"`
		Data   struct {
			WeekStart string `json:"week_start"`
			Days      []string
			Slots     []struct {
				ID     string `json:"id"`
				UserID string `json:"user_id"`
			} `json:"slots"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != 200 {
		t.Fatalf("expected status 200, got %d", envelope.Status)
	}
	if envelope.Data.WeekStart != "2024-06-10" {
		t.Fatalf("expected week start 2024-06-10, got %s", envelope.Data.WeekStart)
	}
	if len(envelope.Data.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(envelope.Data.Slots))
	}
}

func TestCalendar_ExportServesICS(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "u1")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := get(t, app, "/calendar/export.ics?week=2024-06-12")
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("expected text/calendar, got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "BEGIN:VCALENDAR") || !strings.Contains(string(body), "Cat 1") {
		t.Fatalf("calendar payload incomplete:\n%s", body)
	}
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t, &mockRemote{})

	resp := get(t, app, "/health")
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLogout_ClearsStateAndRedirects(t *testing.T) {
	remote := &mockRemote{
		users: []user.User{weekUser()},
		slots: []event.TimeSlot{weekSlot("s1", "")},
	}
	app, sess, store := newTestApp(t, remote)
	signIn(t, sess, store)

	resp := postForm(t, app, "/logout", url.Values{})
	defer resp.Body.Close()

	if resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %q", resp.Header.Get("Location"))
	}
	if sess.Authenticated() {
		t.Fatalf("session still open after logout")
	}
	if len(store.TimeSlots()) != 0 {
		t.Fatalf("store not cleared on logout")
	}
}
