package handler

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/infrastructure/booking"
	"event-booking/internal/session"
)

const flashCookie = "flash"

func setFlash(c fiber.Ctx, kind, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HTTPOnly: true,
	})
}

func takeFlash(c fiber.Ctx) *view.Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(decoded, "|")
	if !ok {
		return nil
	}
	return &view.Flash{Kind: kind, Message: msg}
}

// newPage assembles the chrome fields shared by every template.
func newPage(c fiber.Ctx, sess *session.Session, title string) view.Page {
	p := view.Page{
		Title:         title,
		Authenticated: sess.Authenticated(),
		Flash:         takeFlash(c),
	}
	if u := sess.CurrentUser(); u != nil {
		p.UserName = u.Name
	}
	return p
}

// userMessage turns an action failure into notification text. Service
// rejections keep their own words; everything else gets a generic line
// because transient and permanent failures are reported identically.
func userMessage(err error) string {
	var apiErr *booking.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "The request failed. Please try again later."
}

func redirect(c fiber.Ctx, target string) error {
	return c.Redirect().Status(fiber.StatusFound).To(target)
}

func calendarURL(week, category string) string {
	q := url.Values{}
	if week != "" {
		q.Set("week", week)
	}
	if category != "" {
		q.Set("category", category)
	}
	if len(q) == 0 {
		return "/calendar"
	}
	return "/calendar?" + q.Encode()
}
