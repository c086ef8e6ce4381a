package http

import (
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"todolist/backend/internal/logger"
)

const (
	StaticPrefix = "/static"
	IndexFile    = "todolist.html"
)

// registerStatic serves dir under StaticPrefix when it holds the UI page.
func registerStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	indexPath := filepath.Join(dir, IndexFile)
	info, err := os.Stat(indexPath)
	if err != nil || info.IsDir() {
		logger.Warn("static index missing", "module", "http", "action", "request", "resource", "http", "result", "failed", "path", indexPath)
		return
	}

	logger.Info("static assets enabled", "module", "http", "action", "request", "resource", "http", "result", "ok", "dir", dir)
	e.Static(StaticPrefix, dir)
}
