package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/pkg/response"
)

type AppError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Cause: cause}
}

// ErrorMiddleware is the last line of defense: page handlers report
// failures through flash notifications themselves, so anything arriving
// here is a panic, a render failure, or an API handler error. JSON paths
// get the JSON envelope, everything else a plain error page.
type ErrorMiddleware struct {
	views *view.Renderer
	log   *zap.Logger
}

func NewErrorMiddleware(views *view.Renderer, log *zap.Logger) *ErrorMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorMiddleware{views: views, log: log}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("panic recovered", zap.Any("panic", r))
				err = m.respond(c, fiber.StatusInternalServerError, response.MessageInternalServerError)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg := normalizeError(err)
		if status >= 500 {
			m.log.Error("request failed", zap.String("path", c.OriginalURL()), zap.Error(err))
		}
		return m.respond(c, status, msg)
	}
}

func (m *ErrorMiddleware) respond(c fiber.Ctx, status int, msg string) error {
	if isJSONPath(c.Path()) {
		return response.Error(c, status, msg, nil)
	}
	if m.views != nil {
		data := struct {
			Page    view.Page
			Message string
		}{Page: view.Page{Title: "Error"}, Message: msg}
		if err := m.views.HTML(c, status, "error", data); err == nil {
			return nil
		}
	}
	return c.Status(status).SendString(msg)
}

func isJSONPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/api/") || path == "/api"
}

func normalizeError(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.MessageError
		}
		return status, msg
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.MessageError
		}
		return status, msg
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError
}
