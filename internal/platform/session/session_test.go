package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret", 3600, false)
}

// cookiesFrom copies Set-Cookie headers from a response into a new request.
func cookiesFrom(rec *httptest.ResponseRecorder, req *http.Request) {
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
}

func TestRequireLogin_RedirectsWithoutSession(t *testing.T) {
	m := newTestManager()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/surveillance_list?company_id=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := m.RequireLogin("/login")(func(c echo.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(c))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?next="))
}

func TestRequireLogin_AttachesRequestContext(t *testing.T) {
	m := newTestManager()
	e := echo.New()

	// Log in and capture the cookie.
	loginRec := httptest.NewRecorder()
	loginCtx := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), loginRec)
	require.NoError(t, m.Login(loginCtx, User{ID: 7, Username: "drlee", Role: RoleDoctor}))

	req := httptest.NewRequest(http.MethodGet, "/company_list", nil)
	cookiesFrom(loginRec, req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *RequestContext
	h := m.RequireLogin("/login")(func(c echo.Context) error {
		var err error
		got, err = FromContext(c)
		return err
	})
	require.NoError(t, h(c))
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.User.ID)
	assert.Equal(t, "drlee", got.User.Username)
	assert.True(t, got.IsDoctor())
	assert.Same(t, got, FromStdContext(c.Request().Context()))
}

func TestFlashes_ShownOnce(t *testing.T) {
	m := newTestManager()
	e := echo.New()

	rec1 := httptest.NewRecorder()
	c1 := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec1)
	require.NoError(t, m.Login(c1, User{ID: 1, Username: "nurse", Role: "Nurse"}))

	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	cookiesFrom(rec1, req2)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	require.NoError(t, m.AddFlash(c2, FlashSuccess, "Saved"))

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	cookiesFrom(rec2, req3)
	rec3 := httptest.NewRecorder()
	var flashes []Flash
	h := m.RequireLogin("/login")(func(c echo.Context) error {
		rc, err := FromContext(c)
		flashes = rc.Flashes
		return err
	})
	require.NoError(t, h(e.NewContext(req3, rec3)))
	require.Len(t, flashes, 1)
	assert.Equal(t, Flash{Level: FlashSuccess, Message: "Saved"}, flashes[0])
}

func TestFromContext_NoSession(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := FromContext(c)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestIsDoctor_CaseInsensitive(t *testing.T) {
	rc := &RequestContext{User: User{Role: "doctor"}}
	assert.True(t, rc.IsDoctor())
	rc.User.Role = "Nurse"
	assert.False(t, rc.IsDoctor())
}
