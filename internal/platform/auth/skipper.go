package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths reachable without a logged-in session.
var publicPaths = map[string]bool{
	"/login":     true,
	"/logout":    true,
	"/health":    true,
	"/health/db": true,
}

const staticPrefix = "/static/"

// Skipper returns true for requests whose path should skip the login check.
func Skipper(c echo.Context) bool {
	return IsPublicPath(c.Request().URL.Path)
}

// IsPublicPath reports whether the given path bypasses the login check.
func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, staticPrefix)
}
