// Package pdf turns self-contained HTML into PDF documents through an
// external Chromium-based conversion service (Gotenberg compatible).
//
// The service cannot reach back into this application, so every asset the
// HTML needs must already be inlined as a data URI.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const convertPath = "/forms/chromium/convert/html"

// ErrUnknownPaperSize is returned by New for a paper size it has no
// dimensions for.
var ErrUnknownPaperSize = errors.New("unknown paper size")

// Renderer converts an HTML document to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// paper dimensions in inches, portrait.
var papers = map[string][2]float64{
	"A4":     {8.27, 11.7},
	"A5":     {5.83, 8.27},
	"LETTER": {8.5, 11},
	"LEGAL":  {8.5, 14},
}

// Options fixes the page layout of every generated document.
type Options struct {
	BaseURL   string
	PaperSize string
	Landscape bool
	Timeout   time.Duration
}

// Client is a Renderer backed by the conversion service.
type Client struct {
	http      *resty.Client
	width     float64
	height    float64
	landscape bool
	logger    zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) (*Client, error) {
	size, ok := papers[strings.ToUpper(strings.TrimSpace(opts.PaperSize))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaperSize, opts.PaperSize)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/pdf")
	return &Client{
		http:      c,
		width:     size[0],
		height:    size[1],
		landscape: opts.Landscape,
		logger:    logger,
	}, nil
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render uploads html as index.html and returns the converted PDF.
func (c *Client) Render(ctx context.Context, html string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("files", "index.html", strings.NewReader(html)).
		SetFormData(map[string]string{
			"paperWidth":        inches(c.width),
			"paperHeight":       inches(c.height),
			"landscape":         strconv.FormatBool(c.landscape),
			"printBackground":   "true",
			"marginTop":         "0.4",
			"marginBottom":      "0.4",
			"marginLeft":        "0.4",
			"marginRight":       "0.4",
			"preferCssPageSize": "false",
		}).
		Post(convertPath)
	if err != nil {
		return nil, fmt.Errorf("pdf conversion request: %w", err)
	}
	if resp.IsError() {
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Str("body", truncate(resp.String(), 200)).
			Msg("pdf conversion rejected")
		return nil, fmt.Errorf("pdf conversion failed with status %d", resp.StatusCode())
	}

	body := resp.Body()
	if !strings.HasPrefix(string(body[:min(len(body), 5)]), "%PDF") {
		return nil, errors.New("pdf conversion returned a non-PDF body")
	}
	c.logger.Debug().
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("pdf rendered")
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
