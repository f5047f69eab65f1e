package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/service"
	"github.com/iliyamo/restaurant-manager/internal/session"
)

// maxEventBatch caps the pointer events accepted in one request.
const maxEventBatch = 500

// LayoutHandler drives layout editor sessions: a draft of a hall's tables
// that pointer events are replayed against until it is committed.
type LayoutHandler struct {
	Halls    hallStore
	Tables   tableStore
	Sessions session.Store
	Layout   config.LayoutConfig
	Logger   *log.Logger
	events   events
}

func NewLayoutHandler(halls hallStore, tables tableStore, sessions session.Store, lc config.LayoutConfig, pub service.Publisher, logger *log.Logger) *LayoutHandler {
	if halls == nil || tables == nil || sessions == nil || pub == nil || logger == nil {
		panic("nil dependency passed to NewLayoutHandler")
	}
	return &LayoutHandler{
		Halls:    halls,
		Tables:   tables,
		Sessions: sessions,
		Layout:   lc,
		Logger:   logger,
		events:   events{pub: pub, logger: logger},
	}
}

type sessionResp struct {
	SessionID string       `json:"session_id"`
	HallID    uint64       `json:"hall_id"`
	Version   int64        `json:"version"`
	Dirty     bool         `json:"dirty"`
	State     layout.State `json:"state"`
}

func respondSession(s *session.Session) sessionResp {
	return sessionResp{
		SessionID: s.ID,
		HallID:    s.HallID,
		Version:   s.Version,
		Dirty:     s.Dirty,
		State:     s.Editor().State(),
	}
}

type eventsReq struct {
	Events []layout.Event `json:"events"`
}

func (h *LayoutHandler) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "layout session not found")
	case errors.Is(err, session.ErrConflict):
		return jsonError(c, http.StatusConflict, "layout session modified concurrently, retry")
	case errors.Is(err, repository.ErrHallNotFound):
		return jsonError(c, http.StatusNotFound, "hall not found")
	case errors.Is(err, repository.ErrTableNotFound):
		return jsonError(c, http.StatusConflict, "layout is stale, reopen the session")
	}
	h.Logger.Error("layout session failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "layout session failed")
}

// owned loads a session and hides sessions of other users behind 404.
func (h *LayoutHandler) owned(c echo.Context) (*session.Session, error) {
	uid, orgID, ok := identity(c)
	if !ok {
		return nil, session.ErrNotFound
	}
	s, err := h.Sessions.Get(c.Request().Context(), c.Param("sid"))
	if err != nil {
		return nil, err
	}
	if !s.OwnedBy(orgID, uid) {
		return nil, session.ErrNotFound
	}
	return s, nil
}

// Open handles POST /v1/halls/:id/layout/sessions.
func (h *LayoutHandler) Open(c echo.Context) error {
	uid, orgID, ok := identity(c)
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
		return h.sessionError(c, err)
	}
	rows, err := h.Tables.ListByHall(ctx, hall.ID, orgID)
	if err != nil {
		return h.sessionError(c, err)
	}
	ed := layout.NewEditor(model.LayoutTables(rows), hall.Bounds(), layout.WithMetrics(h.Layout.Metrics))
	s := session.New(orgID, uid, hall.ID, ed)
	if err := h.Sessions.Create(ctx, s); err != nil {
		return h.sessionError(c, err)
	}
	h.Logger.Debug("layout session opened", "session_id", s.ID, "hall_id", hall.ID, "tables", len(rows))
	return c.JSON(http.StatusCreated, respondSession(s))
}

// Get handles GET /v1/layout/sessions/:sid.
func (h *LayoutHandler) Get(c echo.Context) error {
	s, err := h.owned(c)
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, respondSession(s))
}

// Events handles POST /v1/layout/sessions/:sid/events.  The batch is
// validated as a whole before any event is applied.
func (h *LayoutHandler) Events(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var req eventsReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.Events) == 0 || len(req.Events) > maxEventBatch {
		return jsonError(c, http.StatusBadRequest, fmt.Sprintf("events must contain 1 to %d items", maxEventBatch))
	}
	for i, ev := range req.Events {
		if !ev.Valid() {
			return jsonError(c, http.StatusBadRequest, fmt.Sprintf("events[%d]: unknown type %q", i, ev.Type))
		}
	}

	var applied, commits int
	s, err := h.Sessions.Update(c.Request().Context(), c.Param("sid"), func(s *session.Session) error {
		if !s.OwnedBy(orgID, uid) {
			return session.ErrNotFound
		}
		applied, commits = s.Apply(req.Events)
		return nil
	})
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session": respondSession(s),
		"applied": applied,
		"commits": commits,
	})
}

// Commit handles POST /v1/layout/sessions/:sid/commit.  A gesture still in
// progress is finished first; the resulting positions are written in one
// transaction and the draft is dropped.  A draft in which no drag moved a
// table is dropped without writing or publishing anything.
func (h *LayoutHandler) Commit(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	sid := c.Param("sid")
	s, err := h.Sessions.Update(c.Request().Context(), sid, func(s *session.Session) error {
		if !s.OwnedBy(orgID, uid) {
			return session.ErrNotFound
		}
		s.Apply([]layout.Event{{Type: layout.EventPointerUp}})
		return nil
	})
	if err != nil {
		return h.sessionError(c, err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByIDAndOrg(ctx, s.HallID, orgID)
	if err != nil {
		return h.sessionError(c, err)
	}
	tables := s.Snapshot.Tables
	resp := echo.Map{
		"hall_id":  hall.ID,
		"tables":   tables,
		"overlaps": s.Snapshot.Metrics.Overlaps(tables),
		"saved":    s.Dirty,
	}
	if !s.Dirty {
		if err := h.Sessions.Delete(c.Request().Context(), sid); err != nil {
			h.Logger.Warn("drop clean layout session", "session_id", sid, "err", err)
		}
		h.Logger.Debug("layout unchanged, nothing to commit", "hall_id", hall.ID)
		return c.JSON(http.StatusOK, resp)
	}

	positions := model.PositionsOf(tables)
	if err := h.Tables.SavePositions(ctx, hall.ID, positions); err != nil {
		return h.sessionError(c, err)
	}
	if err := h.Sessions.Delete(c.Request().Context(), sid); err != nil {
		h.Logger.Warn("drop committed layout session", "session_id", sid, "err", err)
	}

	h.events.publish(queue.LayoutCommitted, orgID, queue.LayoutCommittedEvent{
		HallID:    hall.ID,
		HallName:  hall.Name,
		UserID:    uid,
		SessionID: sid,
		Positions: positions,
	})
	h.Logger.Info("layout committed", "hall_id", hall.ID, "tables", len(positions))
	return c.JSON(http.StatusOK, resp)
}

// Discard handles DELETE /v1/layout/sessions/:sid.
func (h *LayoutHandler) Discard(c echo.Context) error {
	s, err := h.owned(c)
	if err != nil {
		return h.sessionError(c, err)
	}
	if err := h.Sessions.Delete(c.Request().Context(), s.ID); err != nil {
		return h.sessionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
