package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"todolist/backend/internal/api"
	"todolist/backend/internal/model"
	"todolist/backend/internal/service"
)

type EntryHandler struct {
	service service.EntryService
}

func NewEntryHandler(service service.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

func (h *EntryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/entries", h.List)
	g.POST("/entries", h.Create)
	g.DELETE("/entries", h.DeleteMany)
	g.GET("/entries/:id", h.GetByID)
	g.PUT("/entries/:id", h.Update)
	g.DELETE("/entries/:id", h.Delete)

	// first-generation paths
	g.GET("/api/entrylist", h.List)
	g.POST("/api/entrylist", h.Create)
	g.DELETE("/api/entrylist", h.DeleteMany)
	g.GET("/api/entry/:id", h.GetByID)
	g.PUT("/api/entry/:id", h.Update)
	g.DELETE("/api/entry/:id", h.Delete)
}

// List returns entries, or the changes since a point in time.
// @Summary List entries
// @Description Without modified, returns live entries. With modified, returns every entry changed strictly after it, deleted ones included.
// @Tags entries
// @Produce json
// @Param id query string false "Entry ids separated by '+' or spaces"
// @Param modified query number false "Unix seconds; switches to delta mode"
// @Success 200 {object} api.EntryList
// @Failure 400 {object} errorResponse
// @Router /todolist/entries [get]
func (h *EntryHandler) List(c echo.Context) error {
	p, err := readParams(c, api.ParamID, api.ParamModified)
	if err != nil {
		return writeServiceError(c, err)
	}

	var listParams service.EntryListParams
	if listParams.IDs, err = p.ids(api.ParamID); err != nil {
		return writeServiceError(c, err)
	}
	if listParams.ModifiedSince, err = p.unixTime(api.ParamModified); err != nil {
		return writeServiceError(c, err)
	}

	result, err := h.service.List(c.Request().Context(), listParams)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, api.EntryList{
		Timestamp: api.UnixSeconds(result.Timestamp),
		Entries:   api.FromEntries(result.Entries),
	})
}

// Create adds an entry.
// @Summary Create entry
// @Tags entries
// @Produce json
// @Param title query string true "Entry title"
// @Param notes query string false "Entry notes"
// @Param complete query bool false "Completed flag"
// @Success 201 {object} api.Entry
// @Failure 400 {object} errorResponse
// @Router /todolist/entries [post]
func (h *EntryHandler) Create(c echo.Context) error {
	p, err := readParams(c, api.ParamTitle, api.ParamNotes, api.ParamComplete)
	if err != nil {
		return writeServiceError(c, err)
	}
	if !p.has(api.ParamTitle) {
		return writeServiceError(c, fmt.Errorf("%w: title is required", service.ErrInvalid))
	}
	complete, err := p.boolPtr(api.ParamComplete)
	if err != nil {
		return writeServiceError(c, err)
	}

	input := service.EntryInput{
		Title: p[api.ParamTitle],
		Notes: p.stringPtr(api.ParamNotes),
	}
	if complete != nil {
		input.Complete = *complete
	}

	entry, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, api.FromEntry(entry))
}

// DeleteMany soft-deletes a set of entries.
// @Summary Delete entries
// @Description Returns the ids that were live and are now marked deleted.
// @Tags entries
// @Produce json
// @Param id query string true "Entry ids separated by '+' or spaces"
// @Success 200 {array} string
// @Failure 400 {object} errorResponse
// @Router /todolist/entries [delete]
func (h *EntryHandler) DeleteMany(c echo.Context) error {
	p, err := readParams(c, api.ParamID)
	if err != nil {
		return writeServiceError(c, err)
	}
	ids, err := p.ids(api.ParamID)
	if err != nil {
		return writeServiceError(c, err)
	}

	deleted, err := h.service.DeleteMany(c.Request().Context(), ids)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, api.FormatIDs(deleted))
}

// GetByID returns a single entry.
// @Summary Get entry
// @Tags entries
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} api.Entry
// @Failure 400 {object} errorResponse
// @Failure 410 {object} errorResponse
// @Router /todolist/entries/{id} [get]
func (h *EntryHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := readParams(c); err != nil {
		return writeServiceError(c, err)
	}

	entry, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, api.FromEntry(entry))
}

// Update changes the supplied fields of an entry.
// @Summary Update entry
// @Tags entries
// @Produce json
// @Param id path int true "Entry ID"
// @Param title query string false "Entry title"
// @Param notes query string false "Entry notes; empty clears them"
// @Param complete query bool false "Completed flag"
// @Success 200 {object} api.Entry
// @Failure 400 {object} errorResponse
// @Failure 410 {object} errorResponse
// @Router /todolist/entries/{id} [put]
func (h *EntryHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeServiceError(c, err)
	}
	p, err := readParams(c, api.ParamTitle, api.ParamNotes, api.ParamComplete)
	if err != nil {
		return writeServiceError(c, err)
	}

	patch := model.EntryPatch{
		Title: p.stringPtr(api.ParamTitle),
		Notes: p.stringPtr(api.ParamNotes),
	}
	if patch.Complete, err = p.boolPtr(api.ParamComplete); err != nil {
		return writeServiceError(c, err)
	}

	entry, err := h.service.Update(c.Request().Context(), id, patch)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, api.FromEntry(entry))
}

// Delete soft-deletes one entry. Deleting a missing entry still succeeds.
// @Summary Delete entry
// @Tags entries
// @Param id path int true "Entry ID"
// @Success 200
// @Failure 400 {object} errorResponse
// @Router /todolist/entries/{id} [delete]
func (h *EntryHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := readParams(c); err != nil {
		return writeServiceError(c, err)
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusOK)
}
