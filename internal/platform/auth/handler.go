package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/platform/session"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// LoginPage is the data for the login template.
type LoginPage struct {
	Next     string
	Username string
	Error    string
}

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/login", h.ShowLogin)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)
	e.GET("/logout", h.Logout)
}

func (h *Handler) ShowLogin(c echo.Context) error {
	return web.Render(c, "login", "Sign in", LoginPage{Next: safeNext(c.QueryParam("next"))})
}

func (h *Handler) Login(c echo.Context) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next"))

	u, err := h.svc.Authenticate(c.Request().Context(), username, c.FormValue("password"))
	if err != nil {
		return web.Render(c, "login", "Sign in", LoginPage{Next: next, Username: username, Error: err.Error()})
	}
	if err := h.sessions.Login(c, session.User{ID: u.ID, Username: u.Username, Role: u.Role}); err != nil {
		return web.Render(c, "login", "Sign in", LoginPage{Next: next, Username: username, Error: "could not start session"})
	}
	return c.Redirect(http.StatusSeeOther, next)
}

func (h *Handler) Logout(c echo.Context) error {
	_ = h.sessions.Logout(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/company_list"
	}
	return next
}
