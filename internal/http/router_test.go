package http_test

import (
	"bytes"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"todolist/backend/internal/handler"
	apphttp "todolist/backend/internal/http"
	"todolist/backend/internal/logger"
	"todolist/backend/internal/notify"
	"todolist/backend/internal/repository"
	"todolist/backend/internal/repository/testutil"
	"todolist/backend/internal/service"
)

func newRouter(t *testing.T, opts apphttp.RouterOptions) *echo.Echo {
	t.Helper()
	db := testutil.NewTestDB(t)
	hub := notify.NewHub()
	t.Cleanup(hub.Close)

	svc := service.NewEntryService(repository.NewEntryRepository(db), hub)
	return apphttp.NewRouter(
		handler.NewEntryHandler(svc),
		handler.NewChannelHandler(hub),
		handler.NewHealthHandler(db),
		opts,
	)
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, target, nil))
	return rec
}

func TestRouter_IndexRedirect(t *testing.T) {
	e := newRouter(t, apphttp.RouterOptions{})

	rec := get(e, "/todolist")
	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	require.Equal(t, "/static/todolist.html", rec.Header().Get(echo.HeaderLocation))
}

func TestRouter_AmbientEndpoints(t *testing.T) {
	e := newRouter(t, apphttp.RouterOptions{})

	require.Equal(t, nethttp.StatusOK, get(e, "/healthz").Code)
	require.Equal(t, nethttp.StatusOK, get(e, "/todolist/entries").Code)

	rec := get(e, "/metrics")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "todolist_api_http_requests_total")
	require.Contains(t, rec.Body.String(), `endpoint="/todolist/entries"`)

	rec = get(e, "/swagger/doc.json")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/todolist/entries")
}

func TestRouter_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, apphttp.IndexFile), []byte("<html>todo</html>"), 0o644))

	e := newRouter(t, apphttp.RouterOptions{StaticDir: dir})

	rec := get(e, "/static/todolist.html")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "todo")
}

func TestRouter_StaticMissingIndex(t *testing.T) {
	e := newRouter(t, apphttp.RouterOptions{StaticDir: t.TempDir()})

	require.Equal(t, nethttp.StatusNotFound, get(e, "/static/todolist.html").Code)
}

func TestRouter_RateLimit(t *testing.T) {
	e := newRouter(t, apphttp.RouterOptions{RateLimitQPS: 1})

	require.Equal(t, nethttp.StatusOK, get(e, "/todolist/entries").Code)
	require.Equal(t, nethttp.StatusTooManyRequests, get(e, "/todolist/entries").Code)
	// ambient routes sit outside the limited group
	require.Equal(t, nethttp.StatusOK, get(e, "/healthz").Code)
}

func TestRequestLoggerMiddleware_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, slog.LevelDebug)
	t.Cleanup(func() { logger.InitWriter(os.Stderr, slog.LevelInfo) })

	e := echo.New()
	e.Use(apphttp.RequestLoggerMiddleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(nethttp.StatusOK) })
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(nethttp.StatusBadRequest) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(nethttp.StatusInternalServerError) })

	get(e, "/ok")
	get(e, "/bad")
	get(e, "/boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "level=debug")
	require.Contains(t, lines[0], "status_code=200")
	require.Contains(t, lines[1], "level=warn")
	require.Contains(t, lines[1], "status_code=400")
	require.Contains(t, lines[2], "level=error")
	require.Contains(t, lines[2], "status_code=500")
}
