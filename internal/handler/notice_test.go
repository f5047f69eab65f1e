package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
)

func TestNotices(t *testing.T) {
	pub := &recordingPublisher{}
	h := NewNoticeHandler(&fakeNotices{}, pub, testLogger)
	e := echo.New()
	e.GET("/v1/notices", h.List, owner)
	e.GET("/v1/notices/:id", h.Get, owner)
	e.POST("/v1/notices", h.Create, owner)
	e.PATCH("/v1/notices/:id", h.Update, owner)
	e.DELETE("/v1/notices/:id", h.Delete, owner)

	rec := call(e, http.MethodPost, "/v1/notices", `{"title":"Health inspection","body":"Friday 10:00","pinned":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	n := decode[model.Notice](t, rec)
	assert.Equal(t, testOwner, n.AuthorID)
	assert.True(t, n.Pinned)
	assert.Equal(t, []string{queue.NoticePublished}, pub.kinds())

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/v1/notices", `{"title":"x"}`).Code)
	assert.Len(t, pub.kinds(), 1)

	rec = call(e, http.MethodPatch, "/v1/notices/1", `{"pinned":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.Notice](t, rec).Pinned)
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPatch, "/v1/notices/1", `{"title":" "}`).Code)

	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, "/v1/notices/1", "").Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/v1/notices/1", "").Code)
}
