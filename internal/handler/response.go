package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"todolist/backend/internal/api"
	"todolist/backend/internal/logger"
	"todolist/backend/internal/service"
)

// errorResponse is documented in swagger; it mirrors api.Error.
type errorResponse = api.Error

func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrGone):
		return c.JSON(http.StatusGone, errorResponse{Error: "entry does not exist"})
	default:
		logger.Error("request failed",
			"module", "handler",
			"action", "request",
			"resource", "http",
			"result", "failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// Error returns a JSON error response with the given status and message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}
