// Package pagination reads limit/offset query parameters and builds the
// previous/next links shown under list pages.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	return FromValues(c.QueryParams())
}

// FromValues extracts pagination parameters from query values.
func FromValues(q url.Values) Params {
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Links are the navigation URLs for one page of a list. Empty strings mean
// there is no such page.
type Links struct {
	Total    int
	From     int
	To       int
	Previous string
	Next     string
}

// BuildLinks keeps every filter in query and replaces limit/offset.
func (p Params) BuildLinks(path string, query url.Values, total int) Links {
	l := Links{Total: total}
	if total > 0 && p.Offset < total {
		l.From = p.Offset + 1
		l.To = p.Offset + p.Limit
		if l.To > total {
			l.To = total
		}
	}
	if p.HasNext(total) {
		l.Next = pageURL(path, query, p.Limit, p.NextOffset())
	}
	if p.HasPrevious() {
		l.Previous = pageURL(path, query, p.Limit, p.PreviousOffset())
	}
	return l
}

func pageURL(path string, query url.Values, limit, offset int) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return path + "?" + q.Encode()
}
