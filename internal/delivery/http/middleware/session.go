package middleware

import (
	"github.com/gofiber/fiber/v3"

	"event-booking/internal/pkg/response"
	"event-booking/internal/session"
)

// SessionMiddleware gates the authenticated views. Page requests are sent
// to the login form; API requests get a 401 envelope.
type SessionMiddleware struct {
	session *session.Session
}

func NewSessionMiddleware(sess *session.Session) *SessionMiddleware {
	return &SessionMiddleware{session: sess}
}

func (m *SessionMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.session.Authenticated() {
			return c.Next()
		}
		if isJSONPath(c.Path()) {
			return response.Error(c, fiber.StatusUnauthorized, response.MessageUnauthorized, nil)
		}
		return c.Redirect().Status(fiber.StatusFound).To("/login")
	}
}
