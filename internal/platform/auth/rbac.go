package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/internal/platform/session"
)

// RoleAdmin passes every role check.
const RoleAdmin = "Admin"

// RequireRole returns middleware that checks the session user has one of the
// specified roles. It must run after session.RequireLogin.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc, err := session.FromContext(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			if strings.EqualFold(rc.User.Role, RoleAdmin) {
				return next(c)
			}
			for _, required := range roles {
				if strings.EqualFold(rc.User.Role, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
