package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// sanitizeOKHandler is a simple handler that returns 200 OK for pass-through tests.
func sanitizeOKHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newSanitizeEcho() *echo.Echo {
	e := echo.New()
	e.Use(Sanitize(SanitizeConfig{
		Logger:  zerolog.Nop(),
		Skipper: func(c echo.Context) bool { return c.Request().URL.Path == "/login" },
	}))
	e.GET("/*", sanitizeOKHandler)
	e.POST("/*", sanitizeOKHandler)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestSanitize_PathTraversal(t *testing.T) {
	e := newSanitizeEcho()
	for _, target := range []string{"/../../etc/passwd", "/%2e%2e/%2e%2e/etc/passwd"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestSanitize_HeaderInjection(t *testing.T) {
	e := newSanitizeEcho()
	req := httptest.NewRequest(http.MethodGet, "/company_list", nil)
	req.Header["X-Custom"] = []string{"value\r\nInjected: yes"}
	if rec := serve(e, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSanitize_ScriptInQuery(t *testing.T) {
	e := newSanitizeEcho()
	q := url.Values{"name": {"<script>alert(1)</script>"}}
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/patient_list?"+q.Encode(), nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSanitize_ScriptInForm(t *testing.T) {
	e := newSanitizeEcho()
	rec := serve(e, postForm("/company_form", url.Values{"name": {`<img src=x onerror=alert(1)>`}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSanitize_SQLPatternOnlyLogged(t *testing.T) {
	e := newSanitizeEcho()
	rec := serve(e, postForm("/company_form", url.Values{"name": {"1' OR '1'='1"}}))
	if rec.Code != http.StatusOK {
		t.Errorf("expected SQL-looking input to pass through, got %d", rec.Code)
	}
}

func TestSanitize_PlainClinicalText(t *testing.T) {
	e := newSanitizeEcho()
	form := url.Values{
		"chemical":         {"Toluene"},
		"history_remarks":  {"Smokes 5 cigarettes/day, BP 120/80"},
		"fitness_status":   {"Not Fit for Work"},
		"examination_date": {"2024-03-01"},
	}
	if rec := serve(e, postForm("/surveillance_form", form)); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestSanitize_SkipperBypassesFormScreening(t *testing.T) {
	e := newSanitizeEcho()
	rec := serve(e, postForm("/login", url.Values{"password": {"<script>x</script>"}}))
	if rec.Code != http.StatusOK {
		t.Errorf("expected skipped path to pass, got %d", rec.Code)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Acme\x00 Sdn\x07 Bhd \n"); got != "Acme Sdn Bhd" {
		t.Errorf("SanitizeString = %q", got)
	}
	if got := SanitizeString("line1\nline2"); got != "line1\nline2" {
		t.Errorf("expected newlines kept, got %q", got)
	}
}
