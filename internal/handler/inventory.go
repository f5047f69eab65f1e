package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/service"
)

// InventoryHandler serves stock items and their adjustments.
type InventoryHandler struct {
	Items  inventoryStore
	Logger *log.Logger
	events events
}

func NewInventoryHandler(items inventoryStore, pub service.Publisher, logger *log.Logger) *InventoryHandler {
	if items == nil || pub == nil || logger == nil {
		panic("nil dependency passed to NewInventoryHandler")
	}
	return &InventoryHandler{Items: items, Logger: logger, events: events{pub: pub, logger: logger}}
}

type itemBody struct {
	Name        *string  `json:"name"`
	Unit        *string  `json:"unit"`
	Quantity    *float64 `json:"quantity"`
	MinQuantity *float64 `json:"min_quantity"`
}

type adjustReq struct {
	Delta  float64 `json:"delta"`
	Reason *string `json:"reason"`
}

func (h *InventoryHandler) itemError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInventoryItemNotFound):
		return jsonError(c, http.StatusNotFound, "inventory item not found")
	case errors.Is(err, repository.ErrInventoryNameExists):
		return jsonError(c, http.StatusConflict, "inventory item name already exists")
	case errors.Is(err, repository.ErrInsufficientStock):
		return jsonError(c, http.StatusConflict, "insufficient stock")
	}
	h.Logger.Error("inventory query failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "db error")
}

// apply copies the fields present in the body onto it and validates the
// result.
func (b itemBody) apply(it *model.InventoryItem) string {
	if b.Name != nil {
		name := trimmedOrNil(b.Name)
		if name == nil {
			return "name must not be empty"
		}
		it.Name = *name
	}
	if b.Unit != nil {
		unit := trimmedOrNil(b.Unit)
		if unit == nil {
			return "unit must not be empty"
		}
		it.Unit = *unit
	}
	if b.Quantity != nil {
		it.Quantity = *b.Quantity
	}
	if b.MinQuantity != nil {
		it.MinQuantity = *b.MinQuantity
	}
	if it.Quantity < 0 || it.MinQuantity < 0 {
		return "quantity and min_quantity must not be negative"
	}
	return ""
}

// List handles GET /v1/inventory.
func (h *InventoryHandler) List(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Items.List(ctx, orgID)
	if err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// LowStock handles GET /v1/inventory/low-stock.
func (h *InventoryHandler) LowStock(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Items.ListLow(ctx, orgID)
	if err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/inventory/:id.
func (h *InventoryHandler) Get(c echo.Context) error {
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
	it, err := h.Items.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

// Create handles POST /v1/inventory.
func (h *InventoryHandler) Create(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body itemBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Name == nil || body.Unit == nil {
		return jsonError(c, http.StatusBadRequest, "name and unit are required")
	}
	it := &model.InventoryItem{OrganizationID: orgID}
	if msg := body.apply(it); msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Items.Create(ctx, it); err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusCreated, it)
}

// Update handles PUT/PATCH /v1/inventory/:id.
func (h *InventoryHandler) Update(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body itemBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	it, err := h.Items.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.itemError(c, err)
	}
	if msg := body.apply(&it); msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}
	if err := h.Items.Update(ctx, &it); err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

// Delete handles DELETE /v1/inventory/:id.
func (h *InventoryHandler) Delete(c echo.Context) error {
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
	if err := h.Items.Delete(ctx, id, orgID); err != nil {
		return h.itemError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Adjust handles POST /v1/inventory/:id/adjust.  inventory.low is published
// only when this adjustment takes the item below its threshold, not for
// every adjustment of an item that is already low.
func (h *InventoryHandler) Adjust(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req adjustReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Delta == 0 {
		return jsonError(c, http.StatusBadRequest, "delta must not be zero")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	before, after, err := h.Items.Adjust(ctx, id, orgID, uid, req.Delta, trimmedOrNil(req.Reason))
	if err != nil {
		return h.itemError(c, err)
	}
	if after.Low() && !before.Low() {
		h.events.publish(queue.InventoryLow, orgID, queue.InventoryLowEvent{
			ItemID:      after.ID,
			Name:        after.Name,
			Unit:        after.Unit,
			Quantity:    after.Quantity,
			MinQuantity: after.MinQuantity,
		})
	}
	return c.JSON(http.StatusOK, after)
}

// Movements handles GET /v1/inventory/:id/movements?limit=.
func (h *InventoryHandler) Movements(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, err := h.Items.GetByIDAndOrg(ctx, id, orgID); err != nil {
		return h.itemError(c, err)
	}
	items, err := h.Items.Movements(ctx, id, orgID, limit)
	if err != nil {
		return h.itemError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
