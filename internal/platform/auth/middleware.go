package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/platform/session"
)

// RequireSession applies the session login check to every request except
// the public paths.
func RequireSession(m *session.Manager) echo.MiddlewareFunc {
	requireLogin := m.RequireLogin("/login")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		protected := requireLogin(next)
		return func(c echo.Context) error {
			if Skipper(c) {
				return next(c)
			}
			return protected(c)
		}
	}
}
