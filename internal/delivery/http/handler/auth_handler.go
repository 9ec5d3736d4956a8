package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"event-booking/internal/delivery/http/view"
	"event-booking/internal/session"
	"event-booking/internal/usecase"
)

type AuthHandler struct {
	auth    *usecase.Auth
	session *session.Session
	views   *view.Renderer
	log     *zap.Logger
}

func NewAuthHandler(auth *usecase.Auth, sess *session.Session, views *view.Renderer, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{auth: auth, session: sess, views: views, log: log}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.Root)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
}

func (h *AuthHandler) Root(c fiber.Ctx) error {
	if h.session.Authenticated() {
		return redirect(c, "/calendar")
	}
	return redirect(c, "/login")
}

type authPageData struct {
	Page view.Page
}

func (h *AuthHandler) LoginForm(c fiber.Ctx) error {
	if h.session.Authenticated() {
		return redirect(c, "/calendar")
	}
	return h.views.HTML(c, fiber.StatusOK, "login", authPageData{Page: newPage(c, h.session, "Login")})
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	if err := h.auth.Login(c.Context(), email, password); err != nil {
		h.log.Warn("login failed", zap.Error(err))
		setFlash(c, "error", userMessage(err))
		return redirect(c, "/login")
	}
	return redirect(c, "/calendar")
}

func (h *AuthHandler) RegisterForm(c fiber.Ctx) error {
	if h.session.Authenticated() {
		return redirect(c, "/calendar")
	}
	return h.views.HTML(c, fiber.StatusOK, "register", authPageData{Page: newPage(c, h.session, "Register")})
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	password := c.FormValue("password")

	if err := h.auth.Register(c.Context(), name, email, password); err != nil {
		h.log.Warn("registration failed", zap.Error(err))
		setFlash(c, "error", userMessage(err))
		return redirect(c, "/register")
	}
	return redirect(c, "/calendar")
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if err := h.auth.Logout(); err != nil {
		h.log.Warn("logout failed", zap.Error(err))
	}
	return redirect(c, "/login")
}
