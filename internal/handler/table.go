package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/repository"
)

type tableBody struct {
	TableNumber *string  `json:"table_number"`
	Capacity    *int     `json:"capacity"`
	PosX        *float64 `json:"pos_x"`
	PosY        *float64 `json:"pos_y"`
	IsVertical  *bool    `json:"is_vertical"`
}

type moveBody struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (h *FloorHandler) tableError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTableNotFound):
		return jsonError(c, http.StatusNotFound, "table not found")
	case errors.Is(err, repository.ErrTableNumberExists):
		return jsonError(c, http.StatusConflict, "table number already exists in hall")
	}
	return h.hallError(c, err)
}

// place runs t through the collision resolver against the other tables of
// its hall and stores the result in t.
func (h *FloorHandler) place(ctx context.Context, hall model.Hall, t *model.Table, proposed layout.Point) error {
	rows, err := h.Tables.ListByHall(ctx, hall.ID, hall.OrganizationID)
	if err != nil {
		return err
	}
	p := h.Layout.Metrics.ResolvePosition(t.Layout(), proposed, model.LayoutTables(rows), hall.Bounds())
	t.PosX, t.PosY = p.X, p.Y
	return nil
}

// ListTables handles GET /v1/halls/:id/tables.
func (h *FloorHandler) ListTables(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	hallID, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByIDAndOrg(ctx, hallID, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	tables, err := h.Tables.ListByHall(ctx, hall.ID, orgID)
	if err != nil {
		return h.tableError(c, err)
	}
	return c.JSON(http.StatusOK, model.HallTables{Hall: hall, Tables: tables})
}

// GroupedTables handles GET /v1/tables/grouped, the layout page's first
// load: every hall with its tables.
func (h *FloorHandler) GroupedTables(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	groups, err := h.Tables.ListGrouped(ctx, orgID)
	if err != nil {
		return h.tableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// CreateTable handles POST /v1/halls/:id/tables.  The requested position,
// (0,0) when omitted, is resolved against the hall's existing tables.
func (h *FloorHandler) CreateTable(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	hallID, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body tableBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	number := trimmedOrNil(body.TableNumber)
	if number == nil || body.Capacity == nil || *body.Capacity <= 0 {
		return jsonError(c, http.StatusBadRequest, "table_number and a positive capacity are required")
	}
	t := &model.Table{HallID: hallID, TableNumber: *number, Capacity: *body.Capacity}
	if body.IsVertical != nil {
		t.IsVertical = *body.IsVertical
	}
	var proposed layout.Point
	if body.PosX != nil {
		proposed.X = *body.PosX
	}
	if body.PosY != nil {
		proposed.Y = *body.PosY
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByIDAndOrg(ctx, hallID, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	if err := h.place(ctx, hall, t, proposed); err != nil {
		return h.tableError(c, err)
	}
	if err := h.Tables.Create(ctx, t); err != nil {
		return h.tableError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable handles PUT/PATCH /v1/tables/:id.  Any change to the
// footprint or position re-resolves where the table sits.
func (h *FloorHandler) UpdateTable(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body tableBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	t, err := h.Tables.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.tableError(c, err)
	}
	if body.TableNumber != nil {
		number := trimmedOrNil(body.TableNumber)
		if number == nil {
			return jsonError(c, http.StatusBadRequest, "table_number must not be empty")
		}
		t.TableNumber = *number
	}
	if body.Capacity != nil {
		if *body.Capacity <= 0 {
			return jsonError(c, http.StatusBadRequest, "capacity must be greater than zero")
		}
		t.Capacity = *body.Capacity
	}
	if body.IsVertical != nil {
		t.IsVertical = *body.IsVertical
	}
	proposed := layout.Point{X: t.PosX, Y: t.PosY}
	if body.PosX != nil {
		proposed.X = *body.PosX
	}
	if body.PosY != nil {
		proposed.Y = *body.PosY
	}
	if body.Capacity != nil || body.IsVertical != nil || body.PosX != nil || body.PosY != nil {
		hall, err := h.Halls.GetByIDAndOrg(ctx, t.HallID, orgID)
		if err != nil {
			return h.hallError(c, err)
		}
		if err := h.place(ctx, hall, &t, proposed); err != nil {
			return h.tableError(c, err)
		}
	}
	if err := h.Tables.Update(ctx, &t); err != nil {
		return h.tableError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// MoveTable handles POST /v1/tables/:id/move: a single-table placement
// outside an editor session.
func (h *FloorHandler) MoveTable(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body moveBody
	if err := c.Bind(&body); err != nil || body.X == nil || body.Y == nil {
		return jsonError(c, http.StatusBadRequest, "x and y are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	t, err := h.Tables.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.tableError(c, err)
	}
	hall, err := h.Halls.GetByIDAndOrg(ctx, t.HallID, orgID)
	if err != nil {
		return h.hallError(c, err)
	}
	if err := h.place(ctx, hall, &t, layout.Point{X: *body.X, Y: *body.Y}); err != nil {
		return h.tableError(c, err)
	}
	pos := []model.TablePosition{{ID: t.ID, PosX: t.PosX, PosY: t.PosY}}
	if err := h.Tables.SavePositions(ctx, hall.ID, pos); err != nil {
		return h.tableError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/tables/:id.
func (h *FloorHandler) DeleteTable(c echo.Context) error {
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
	if err := h.Tables.Delete(ctx, id, orgID); err != nil {
		return h.tableError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
