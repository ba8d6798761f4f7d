package middleware

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimitConfig sets the request body ceiling. Limits are sizes such as
// "512K", "2M" or "1G"; a bare number is bytes.
type BodyLimitConfig struct {
	Default string
	// ByPrefix overrides Default for request paths starting with the key.
	// The longest matching prefix wins.
	ByPrefix map[string]string
}

type prefixLimit struct {
	prefix string
	bytes  int64
}

// BodyLimit rejects bodies over the configured size with 413. Requests that
// declare an oversize Content-Length fail before the handler runs; others
// fail on the read that crosses the limit.
func BodyLimit(cfg BodyLimitConfig) echo.MiddlewareFunc {
	def := parseLimit(cfg.Default)
	overrides := make([]prefixLimit, 0, len(cfg.ByPrefix))
	for p, l := range cfg.ByPrefix {
		overrides = append(overrides, prefixLimit{prefix: p, bytes: parseLimit(l)})
	}
	sort.Slice(overrides, func(i, j int) bool { return len(overrides[i].prefix) > len(overrides[j].prefix) })

	limitFor := func(path string) int64 {
		for _, o := range overrides {
			if strings.HasPrefix(path, o.prefix) {
				return o.bytes
			}
		}
		return def
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			max := limitFor(req.URL.Path)
			if req.ContentLength > max {
				return tooLarge(max)
			}
			req.Body = &cappedBody{ReadCloser: req.Body, left: max, max: max}
			return next(c)
		}
	}
}

// cappedBody reads at most max bytes and then fails every later read.
type cappedBody struct {
	io.ReadCloser
	left int64
	max  int64
	over bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.over {
		return 0, tooLarge(b.max)
	}
	// One extra byte tells an exact fit from an overflow.
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}
	n, err := b.ReadCloser.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		b.over = true
		return 0, tooLarge(b.max)
	}
	return n, err
}

func tooLarge(max int64) error {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Request body exceeds maximum allowed size of %d bytes", max))
}

const defaultBodyLimit = 2 << 20

func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "B")

	shift := 0
	if s != "" {
		switch s[len(s)-1] {
		case 'K':
			shift = 10
		case 'M':
			shift = 20
		case 'G':
			shift = 30
		}
		if shift > 0 {
			s = s[:len(s)-1]
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return defaultBodyLimit
	}
	return n << shift
}
