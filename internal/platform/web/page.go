package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/platform/session"
)

// Page is the value every layout template receives.
type Page struct {
	Title   string
	User    *session.User
	Flashes []session.Flash
	Data    interface{}
}

// ErrorData fills the error panel.
type ErrorData struct {
	Message string
	BackURL string
}

// Flasher queues one-shot messages for the next page.
type Flasher interface {
	AddFlash(c echo.Context, level, message string) error
}

// DocumentRenderer produces the self-contained HTML handed to the PDF
// renderer.
type DocumentRenderer interface {
	Document(name string, data interface{}) (string, error)
}

// PDF answers with an inline PDF.
func PDF(c echo.Context, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// Render writes a layout page with the session user and pending flashes.
func Render(c echo.Context, name, title string, data interface{}) error {
	p := Page{Title: title, Data: data}
	if rc, err := session.FromContext(c); err == nil {
		u := rc.User
		p.User = &u
		p.Flashes = rc.Flashes
	}
	return c.Render(http.StatusOK, name, p)
}

// ErrorPanel renders an inline error with a link back to a safe page. It
// answers 200 so the browser keeps the layout and navigation.
func ErrorPanel(c echo.Context, message, backURL string) error {
	if backURL == "" {
		backURL = "/company_list"
	}
	return Render(c, "error", "Error", ErrorData{Message: message, BackURL: backURL})
}

// AddFlash queues a flash through f. A failure loses only the message and
// is logged at warn on the request logger.
func AddFlash(c echo.Context, f Flasher, level, message string) {
	if err := f.AddFlash(c, level, message); err != nil {
		zerolog.Ctx(c.Request().Context()).Warn().Err(err).
			Str("flash_level", level).
			Str("path", c.Request().URL.Path).
			Msg("flash not queued")
	}
}

// RedirectWithFlash queues a flash and answers 303 to target.
func RedirectWithFlash(c echo.Context, f Flasher, target, level, message string) error {
	if f != nil && message != "" {
		AddFlash(c, f, level, message)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// HTTPErrorHandler renders anything that escapes a handler as an error panel.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Something went wrong. Please try again."
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
				message = msg
			}
		}
		if code == http.StatusNotFound {
			message = "The requested page does not exist."
		}

		evt := logger.Warn()
		if code >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Err(err).Int("status", code).Str("path", c.Request().URL.Path).Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if rerr := ErrorPanel(c, message, "/company_list"); rerr != nil {
			_ = c.String(code, message)
		}
	}
}
