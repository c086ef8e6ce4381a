package http

import (
	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "todolist/backend/docs"
	"todolist/backend/internal/handler"
	"todolist/backend/internal/metrics"
)

// BasePath prefixes every todo list route.
const BasePath = "/todolist"

type RouterOptions struct {
	StaticDir string
	// RateLimitQPS of 0 disables throttling.
	RateLimitQPS int
}

func NewRouter(
	entryHandler *handler.EntryHandler,
	channelHandler *handler.ChannelHandler,
	healthHandler *handler.HealthHandler,
	opts RouterOptions,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())
	e.Use(MetricsMiddleware())

	healthHandler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	g := e.Group(BasePath)
	if opts.RateLimitQPS > 0 {
		g.Use(RateLimitMiddleware(opts.RateLimitQPS))
	}
	g.GET("", func(c echo.Context) error {
		return c.Redirect(nethttp.StatusSeeOther, StaticPrefix+"/"+IndexFile)
	})
	entryHandler.RegisterRoutes(g)
	channelHandler.RegisterRoutes(g)

	registerStatic(e, opts.StaticDir)

	return e
}
