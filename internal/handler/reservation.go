package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/service"
)

// ReservationHandler serves table bookings.
type ReservationHandler struct {
	Reservations reservationStore
	Tables       tableStore
	Logger       *log.Logger
	events       events
}

func NewReservationHandler(res reservationStore, tables tableStore, pub service.Publisher, logger *log.Logger) *ReservationHandler {
	if res == nil || tables == nil || pub == nil || logger == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: res, Tables: tables, Logger: logger, events: events{pub: pub, logger: logger}}
}

type reservationReq struct {
	TableID    uint64    `json:"table_id"`
	GuestName  string    `json:"guest_name"`
	GuestPhone *string   `json:"guest_phone"`
	PartySize  int       `json:"party_size"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Notes      *string   `json:"notes"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *ReservationHandler) reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrReservationNotFound):
		return jsonError(c, http.StatusNotFound, "reservation not found")
	case errors.Is(err, repository.ErrTableNotFound):
		return jsonError(c, http.StatusNotFound, "table not found")
	case errors.Is(err, repository.ErrReservationOverlap):
		return jsonError(c, http.StatusConflict, "table already reserved for that time")
	case errors.Is(err, repository.ErrPartyTooLarge):
		return jsonError(c, http.StatusBadRequest, "party size exceeds table capacity")
	case errors.Is(err, repository.ErrInvalidTransition):
		return jsonError(c, http.StatusConflict, "invalid status transition")
	}
	h.Logger.Error("reservation query failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "db error")
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	req.GuestName = strings.TrimSpace(req.GuestName)
	switch {
	case req.TableID == 0 || req.GuestName == "":
		return jsonError(c, http.StatusBadRequest, "table_id and guest_name are required")
	case req.PartySize <= 0:
		return jsonError(c, http.StatusBadRequest, "party_size must be greater than zero")
	case req.StartsAt.IsZero() || req.EndsAt.IsZero() || !req.StartsAt.Before(req.EndsAt):
		return jsonError(c, http.StatusBadRequest, "starts_at must be before ends_at")
	}

	res := &model.Reservation{
		OrganizationID:   orgID,
		TableID:          req.TableID,
		CreatedBy:        uid,
		GuestName:        req.GuestName,
		GuestPhone:       trimmedOrNil(req.GuestPhone),
		PartySize:        req.PartySize,
		StartsAt:         req.StartsAt.UTC(),
		EndsAt:           req.EndsAt.UTC(),
		Status:           model.ReservationBooked,
		ConfirmationCode: uuid.NewString(),
		Notes:            trimmedOrNil(req.Notes),
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Reservations.Create(ctx, res); err != nil {
		return h.reservationError(c, err)
	}

	ev := queue.ReservationCreatedEvent{
		ReservationID:    res.ID,
		TableID:          res.TableID,
		GuestName:        res.GuestName,
		PartySize:        res.PartySize,
		StartsAt:         res.StartsAt,
		EndsAt:           res.EndsAt,
		ConfirmationCode: res.ConfirmationCode,
	}
	if t, err := h.Tables.GetByIDAndOrg(ctx, res.TableID, orgID); err == nil {
		ev.TableNumber = t.TableNumber
	}
	h.events.publish(queue.ReservationCreated, orgID, ev)
	return c.JSON(http.StatusCreated, res)
}

// List handles GET /v1/reservations?date=YYYY-MM-DD&hall_id=.
func (h *ReservationHandler) List(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var f repository.ReservationFilter
	if s := strings.TrimSpace(c.QueryParam("date")); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Date = d
	}
	if s := strings.TrimSpace(c.QueryParam("hall_id")); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return jsonError(c, http.StatusBadRequest, "invalid hall_id")
		}
		f.HallID = id
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Reservations.List(ctx, orgID, f)
	if err != nil {
		return h.reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
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
	res, err := h.Reservations.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.reservationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	to := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidReservationStatus(to) {
		return jsonError(c, http.StatusBadRequest, "unknown status")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	res, err := h.Reservations.UpdateStatus(ctx, id, orgID, to)
	if err != nil {
		return h.reservationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
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
	if err := h.Reservations.Delete(ctx, id, orgID); err != nil {
		return h.reservationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
