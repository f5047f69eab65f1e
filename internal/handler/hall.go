package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/repository"
)

// FloorHandler serves halls and the tables placed in them.
type FloorHandler struct {
	Halls  hallStore
	Tables tableStore
	Layout config.LayoutConfig
	Logger *log.Logger
}

func NewFloorHandler(halls hallStore, tables tableStore, lc config.LayoutConfig, logger *log.Logger) *FloorHandler {
	if halls == nil || tables == nil || logger == nil {
		panic("nil dependency passed to NewFloorHandler")
	}
	return &FloorHandler{Halls: halls, Tables: tables, Layout: lc, Logger: logger}
}

type hallBody struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	CanvasWidth  *float64 `json:"canvas_width"`
	CanvasHeight *float64 `json:"canvas_height"`
}

// trimmedOrNil returns nil for absent or blank strings.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (h *FloorHandler) hallError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrHallNotFound):
		return jsonError(c, http.StatusNotFound, "hall not found")
	case errors.Is(err, repository.ErrHallNameExists):
		return jsonError(c, http.StatusConflict, "hall name already exists")
	case errors.Is(err, repository.ErrConflict):
		return jsonError(c, http.StatusConflict, "hall has upcoming reservations")
	}
	h.Logger.Error("hall query failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "db error")
}

// ListHalls handles GET /v1/halls.
func (h *FloorHandler) ListHalls(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	halls, err := h.Halls.ListByOrg(ctx, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": halls})
}

// GetHall handles GET /v1/halls/:id.
func (h *FloorHandler) GetHall(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	return c.JSON(http.StatusOK, hall)
}

// CreateHall handles POST /v1/halls.  Missing canvas dimensions take the
// configured defaults.
func (h *FloorHandler) CreateHall(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body hallBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	name := trimmedOrNil(body.Name)
	if name == nil {
		return jsonError(c, http.StatusBadRequest, "name is required")
	}
	hall := &model.Hall{
		OrganizationID: orgID,
		Name:           *name,
		Description:    trimmedOrNil(body.Description),
		CanvasWidth:    h.Layout.Canvas.DefaultWidth,
		CanvasHeight:   h.Layout.Canvas.DefaultHeight,
	}
	if body.CanvasWidth != nil {
		hall.CanvasWidth = *body.CanvasWidth
	}
	if body.CanvasHeight != nil {
		hall.CanvasHeight = *body.CanvasHeight
	}
	if hall.CanvasWidth <= 0 || hall.CanvasHeight <= 0 {
		return jsonError(c, http.StatusBadRequest, "canvas_width and canvas_height must be greater than zero")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Halls.Create(ctx, hall); err != nil {
		return h.hallError(c, err)
	}
	return c.JSON(http.StatusCreated, hall)
}

// UpdateHall handles PUT/PATCH /v1/halls/:id.  Fields left out keep their
// value; an empty description clears it.  Tables outside a shrunk canvas
// are pulled back in and counted in "reclamped".
func (h *FloorHandler) UpdateHall(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body hallBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	if body.Name != nil {
		name := trimmedOrNil(body.Name)
		if name == nil {
			return jsonError(c, http.StatusBadRequest, "name must not be empty")
		}
		hall.Name = *name
	}
	if body.Description != nil {
		hall.Description = trimmedOrNil(body.Description)
	}
	if body.CanvasWidth != nil {
		hall.CanvasWidth = *body.CanvasWidth
	}
	if body.CanvasHeight != nil {
		hall.CanvasHeight = *body.CanvasHeight
	}
	if hall.CanvasWidth <= 0 || hall.CanvasHeight <= 0 {
		return jsonError(c, http.StatusBadRequest, "canvas_width and canvas_height must be greater than zero")
	}

	moved, err := h.Halls.Update(ctx, &hall, h.Layout.Metrics)
	if err != nil {
		return h.hallError(c, err)
	}
	if moved > 0 {
		h.Logger.Info("tables reclamped", "hall_id", hall.ID, "count", moved)
	}
	return c.JSON(http.StatusOK, echo.Map{"hall": hall, "reclamped": moved})
}

// DeleteHall handles DELETE /v1/halls/:id.  Halls with upcoming active
// reservations are refused with 409.
func (h *FloorHandler) DeleteHall(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Halls.Delete(ctx, id, orgID); err != nil {
		return h.hallError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
