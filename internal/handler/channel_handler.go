package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"todolist/backend/internal/api"
	"todolist/backend/internal/logger"
	"todolist/backend/internal/notify"
)

// ChannelHub issues update channels and serves their WebSocket side.
type ChannelHub interface {
	Open() (notify.Channel, error)
	Claim(token string) (string, error)
	Serve(w http.ResponseWriter, r *http.Request, clientID string) error
}

type ChannelHandler struct {
	hub ChannelHub
}

func NewChannelHandler(hub ChannelHub) *ChannelHandler {
	return &ChannelHandler{hub: hub}
}

func (h *ChannelHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/channel", h.Open)
	g.GET("/channel/connect", h.Connect)
}

// Open issues a client id and a one-shot connect token.
// @Summary Open update channel
// @Tags channel
// @Produce json
// @Success 201 {object} api.Channel
// @Failure 400 {object} errorResponse
// @Router /todolist/channel [post]
func (h *ChannelHandler) Open(c echo.Context) error {
	if _, err := readParams(c); err != nil {
		return writeServiceError(c, err)
	}

	ch, err := h.hub.Open()
	if err != nil {
		return writeServiceError(c, err)
	}

	logger.Debug("channel opened", "module", "handler", "action", "create", "resource", "channel", "result", "ok", "client_id", ch.ClientID)
	return c.JSON(http.StatusCreated, api.Channel{ClientID: ch.ClientID, Token: ch.Token})
}

// Connect upgrades to a WebSocket that streams entry updates.
// @Summary Connect update channel
// @Tags channel
// @Param token query string true "Token from Open"
// @Success 101
// @Failure 400 {object} errorResponse
// @Failure 410 {object} errorResponse
// @Router /todolist/channel/connect [get]
func (h *ChannelHandler) Connect(c echo.Context) error {
	p, err := readParams(c, api.ParamToken)
	if err != nil {
		return writeServiceError(c, err)
	}

	clientID, err := h.hub.Claim(p[api.ParamToken])
	if err != nil {
		if errors.Is(err, notify.ErrUnknownToken) {
			return Error(c, http.StatusGone, "channel does not exist")
		}
		return writeServiceError(c, err)
	}

	if err := h.hub.Serve(c.Response(), c.Request(), clientID); err != nil {
		// the upgrader has already written the failure response
		logger.Warn("channel upgrade failed", "module", "handler", "action", "connect", "resource", "channel", "result", "failed", "client_id", clientID, "error", err)
	}
	return nil
}
