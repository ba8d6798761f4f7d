package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/corazawaf/libinjection-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxHeaderValueSize is the maximum allowed size for any single header value.
const maxHeaderValueSize = 8192 // 8KB

// SanitizeConfig configures the input screening middleware.
type SanitizeConfig struct {
	// Skipper excludes requests from form screening. Path and header checks
	// still apply.
	Skipper func(c echo.Context) bool
	Logger  zerolog.Logger
}

// Sanitize returns middleware that screens the path, headers, query
// parameters and urlencoded form values of every request. Script payloads
// and null bytes are rejected with 400; SQL injection fingerprints are only
// logged because every query is parameterized.
func Sanitize(cfg SanitizeConfig) echo.MiddlewareFunc {
	logger := cfg.Logger
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if containsPathTraversal(path) || containsPathTraversal(rawPath) {
				return rejected("Path traversal detected")
			}
			if containsNullByte(path) || containsNullByte(rawPath) {
				return rejected("Null byte injection detected")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return rejected("Header value exceeds maximum size: " + name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return rejected("Header injection detected: " + name)
					}
				}
			}

			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			if msg := screenValues(logger, c, "query", req.URL.Query()); msg != "" {
				return rejected(msg)
			}

			if req.Method == http.MethodPost &&
				strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
				form, err := c.FormParams()
				if err != nil {
					return rejected("Malformed form body")
				}
				if msg := screenValues(logger, c, "form", form); msg != "" {
					return rejected(msg)
				}
			}

			return next(c)
		}
	}
}

func screenValues(logger zerolog.Logger, c echo.Context, source string, values map[string][]string) string {
	for key, vs := range values {
		if containsNullByte(key) {
			return "Null byte injection detected in " + source + " parameter"
		}
		for _, v := range vs {
			if strings.ContainsRune(v, '\x00') {
				return "Null byte injection detected in " + source + " parameter"
			}
			if libinjection.IsXSS(v) {
				return "Script injection detected in field " + key
			}
			if isSQLi, fingerprint := libinjection.IsSQLi(v); isSQLi {
				logger.Warn().
					Str("source", source).
					Str("param", key).
					Str("fingerprint", fingerprint).
					Str("path", c.Request().URL.Path).
					Str("remote_ip", c.RealIP()).
					Msg("potential SQL injection pattern detected")
			}
		}
	}
	return ""
}

// containsPathTraversal checks for path traversal sequences in raw and
// percent-encoded forms.
func containsPathTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

// containsNullByte checks for null bytes in raw and percent-encoded forms.
func containsNullByte(s string) bool {
	if strings.ContainsRune(s, '\x00') {
		return true
	}
	return strings.Contains(strings.ToLower(s), "%00")
}

func rejected(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// SanitizeString strips null bytes and control characters (except \n, \r,
// \t) and trims surrounding whitespace. Handlers use it on free-text fields.
func SanitizeString(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\x00' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
