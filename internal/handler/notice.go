package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/service"
)

// NoticeHandler serves the staff notice board.
type NoticeHandler struct {
	Notices noticeStore
	Logger  *log.Logger
	events  events
}

func NewNoticeHandler(notices noticeStore, pub service.Publisher, logger *log.Logger) *NoticeHandler {
	if notices == nil || pub == nil || logger == nil {
		panic("nil dependency passed to NewNoticeHandler")
	}
	return &NoticeHandler{Notices: notices, Logger: logger, events: events{pub: pub, logger: logger}}
}

type noticeBody struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Pinned *bool   `json:"pinned"`
}

func (h *NoticeHandler) noticeError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNoticeNotFound) {
		return jsonError(c, http.StatusNotFound, "notice not found")
	}
	h.Logger.Error("notice query failed", "err", err)
	return jsonError(c, http.StatusInternalServerError, "db error")
}

// List handles GET /v1/notices.  Pinned notices come first, then newest.
func (h *NoticeHandler) List(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Notices.List(ctx, orgID)
	if err != nil {
		return h.noticeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/notices/:id.
func (h *NoticeHandler) Get(c echo.Context) error {
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
	n, err := h.Notices.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.noticeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// Create handles POST /v1/notices and announces the notice.
func (h *NoticeHandler) Create(c echo.Context) error {
	uid, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body noticeBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	title, text := trimmedOrNil(body.Title), trimmedOrNil(body.Body)
	if title == nil || text == nil {
		return jsonError(c, http.StatusBadRequest, "title and body are required")
	}
	n := &model.Notice{OrganizationID: orgID, AuthorID: uid, Title: *title, Body: *text}
	if body.Pinned != nil {
		n.Pinned = *body.Pinned
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Notices.Create(ctx, n); err != nil {
		return h.noticeError(c, err)
	}
	h.events.publish(queue.NoticePublished, orgID, queue.NoticePublishedEvent{
		NoticeID: n.ID,
		AuthorID: n.AuthorID,
		Title:    n.Title,
		Pinned:   n.Pinned,
	})
	return c.JSON(http.StatusCreated, n)
}

// Update handles PUT/PATCH /v1/notices/:id.
func (h *NoticeHandler) Update(c echo.Context) error {
	_, orgID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var body noticeBody
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	n, err := h.Notices.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return h.noticeError(c, err)
	}
	if body.Title != nil {
		title := trimmedOrNil(body.Title)
		if title == nil {
			return jsonError(c, http.StatusBadRequest, "title must not be empty")
		}
		n.Title = *title
	}
	if body.Body != nil {
		text := trimmedOrNil(body.Body)
		if text == nil {
			return jsonError(c, http.StatusBadRequest, "body must not be empty")
		}
		n.Body = *text
	}
	if body.Pinned != nil {
		n.Pinned = *body.Pinned
	}
	if err := h.Notices.Update(ctx, &n); err != nil {
		return h.noticeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

// Delete handles DELETE /v1/notices/:id.
func (h *NoticeHandler) Delete(c echo.Context) error {
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
	if err := h.Notices.Delete(ctx, id, orgID); err != nil {
		return h.noticeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
