package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"todolist/backend/internal/api"
	"todolist/backend/internal/service"
)

const maxFormBody = 64 << 10

// params holds the decoded request parameters. Later occurrences of a key
// win.
type params map[string]string

// readParams merges the query string with a form-encoded body and rejects
// any key outside allowed. Pairs may be separated by '&' or ';'.
func readParams(c echo.Context, allowed ...string) (params, error) {
	req := c.Request()
	raw := req.URL.RawQuery

	if req.Body != nil && isFormRequest(req) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxFormBody))
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable body", service.ErrInvalid)
		}
		if len(body) > 0 {
			raw = strings.Trim(raw+"&"+string(body), "&")
		}
	}

	p := params{}
	for _, pair := range strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ';' }) {
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed parameter %q", service.ErrInvalid, rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed value for %s", service.ErrInvalid, key)
		}
		if !slices.Contains(allowed, key) {
			return nil, fmt.Errorf("%w: unknown parameter %s", service.ErrInvalid, key)
		}
		p[key] = value
	}
	return p, nil
}

func (p params) has(name string) bool {
	_, ok := p[name]
	return ok
}

func (p params) stringPtr(name string) *string {
	v, ok := p[name]
	if !ok {
		return nil
	}
	return &v
}

func (p params) boolPtr(name string) (*bool, error) {
	v, ok := p[name]
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", service.ErrInvalid, name)
	}
	return &b, nil
}

// ids splits a list such as "1+2+5" or "1 2 5". A literal '+' decodes to a
// space, an escaped one is accepted too.
func (p params) ids(name string) ([]int64, error) {
	v, ok := p[name]
	if !ok {
		return nil, nil
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == '+' || r == ' ' || r == '\t' || r == ',' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", service.ErrInvalid, name)
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be integers", service.ErrInvalid, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p params) unixTime(name string) (*time.Time, error) {
	v, ok := p[name]
	if !ok {
		return nil, nil
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be unix seconds", service.ErrInvalid, name)
	}
	t := api.FromUnixSeconds(secs)
	return &t, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrInvalid, name)
	}
	return id, nil
}

func isFormRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}
