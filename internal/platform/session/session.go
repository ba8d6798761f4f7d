// Package session carries the logged-in user and flash messages between
// requests. Handlers never read the cookie directly; they receive an explicit
// RequestContext from FromContext.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// CookieName is the name of the session cookie.
const CookieName = "ohclinic_session"

// Session value keys.
const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
)

// RoleDoctor gates the medical-staff identity lookup for examiner defaults.
const RoleDoctor = "Doctor"

type contextKey string

const requestContextKey contextKey = "request_context"

// ErrNoSession is returned when a handler runs without RequireLogin.
var ErrNoSession = errors.New("no session in request")

// Flash levels.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// User is the identity stored in the session after login.
type User struct {
	ID       int64
	Username string
	Role     string
}

// RequestContext is the per-request view of the session and form body.
type RequestContext struct {
	User    User
	Flashes []Flash
	Form    url.Values
	Query   url.Values
}

// IsDoctor reports whether the session user has the Doctor role.
func (rc *RequestContext) IsDoctor() bool {
	return strings.EqualFold(rc.User.Role, RoleDoctor)
}

// Manager wraps the gorilla session store.
type Manager struct {
	store sessions.Store
}

// NewManager creates a cookie-backed session manager. The secret is hashed to
// derive a 32-byte signing key.
func NewManager(secret string, maxAge int, secure bool) *Manager {
	key := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// NewManagerWithStore is used by tests to inject a store.
func NewManagerWithStore(store sessions.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) get(c echo.Context) (*sessions.Session, error) {
	return m.store.Get(c.Request(), CookieName)
}

// Login stores the user in the session.
func (m *Manager) Login(c echo.Context, u User) error {
	s, err := m.get(c)
	if err != nil && s == nil {
		return err
	}
	s.Values[keyUserID] = u.ID
	s.Values[keyUsername] = u.Username
	s.Values[keyRole] = u.Role
	return s.Save(c.Request(), c.Response())
}

// Logout expires the session cookie.
func (m *Manager) Logout(c echo.Context) error {
	s, err := m.get(c)
	if err != nil && s == nil {
		return err
	}
	s.Options.MaxAge = -1
	for k := range s.Values {
		delete(s.Values, k)
	}
	return s.Save(c.Request(), c.Response())
}

// AddFlash queues a message for the next page render.
func (m *Manager) AddFlash(c echo.Context, level, message string) error {
	s, err := m.get(c)
	if err != nil && s == nil {
		return err
	}
	s.AddFlash(Flash{Level: level, Message: message})
	return s.Save(c.Request(), c.Response())
}

// Current returns the logged-in user, or false when the session is empty.
func (m *Manager) Current(c echo.Context) (User, bool) {
	s, err := m.get(c)
	if err != nil || s == nil {
		return User{}, false
	}
	id, _ := s.Values[keyUserID].(int64)
	if id <= 0 {
		return User{}, false
	}
	username, _ := s.Values[keyUsername].(string)
	role, _ := s.Values[keyRole].(string)
	return User{ID: id, Username: username, Role: role}, true
}

// RequireLogin redirects to loginPath when there is no logged-in user and
// otherwise attaches a RequestContext to the request.
func (m *Manager) RequireLogin(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := m.Current(c)
			if !ok {
				target := loginPath
				if c.Request().Method == http.MethodGet {
					target += "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
				}
				return c.Redirect(http.StatusSeeOther, target)
			}

			rc := &RequestContext{User: user, Query: c.QueryParams()}
			if c.Request().Method == http.MethodPost {
				form, err := c.FormParams()
				if err == nil {
					rc.Form = form
				}
			}
			rc.Flashes = m.popFlashes(c)

			Attach(c, rc)
			return next(c)
		}
	}
}

func (m *Manager) popFlashes(c echo.Context) []Flash {
	s, err := m.get(c)
	if err != nil || s == nil {
		return nil
	}
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(c.Request(), c.Response())

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}

// Attach stores rc on both the echo context and the request context.
func Attach(c echo.Context, rc *RequestContext) {
	c.Set(string(requestContextKey), rc)
	ctx := context.WithValue(c.Request().Context(), requestContextKey, rc)
	c.SetRequest(c.Request().WithContext(ctx))
}

// FromContext returns the RequestContext attached by RequireLogin.
func FromContext(c echo.Context) (*RequestContext, error) {
	if rc, ok := c.Get(string(requestContextKey)).(*RequestContext); ok && rc != nil {
		return rc, nil
	}
	if rc := FromStdContext(c.Request().Context()); rc != nil {
		return rc, nil
	}
	return nil, ErrNoSession
}

// FromStdContext returns the RequestContext carried by a context.Context.
func FromStdContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}
