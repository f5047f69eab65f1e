package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/queue"
	"github.com/iliyamo/restaurant-manager/internal/session"
)

type layoutRig struct {
	e      *echo.Echo
	halls  *fakeHalls
	tables *fakeTables
	store  *session.MemoryStore
	pub    *recordingPublisher
}

func newLayoutRig(t *testing.T) *layoutRig {
	t.Helper()
	halls, tables := floorFixture()
	r := &layoutRig{
		e:      echo.New(),
		halls:  halls,
		tables: tables,
		store:  session.NewMemoryStore(time.Minute),
		pub:    &recordingPublisher{},
	}
	h := NewLayoutHandler(halls, tables, r.store, config.DefaultLayoutConfig(), r.pub, testLogger)
	other := as(testOwner+1, testOrg, model.RoleOwner)

	r.e.POST("/v1/halls/:id/layout/sessions", h.Open, owner)
	for _, g := range []struct {
		prefix string
		mw     echo.MiddlewareFunc
	}{{"/v1", owner}, {"/other", other}} {
		grp := r.e.Group(g.prefix, g.mw)
		grp.GET("/layout/sessions/:sid", h.Get)
		grp.POST("/layout/sessions/:sid/events", h.Events)
		grp.POST("/layout/sessions/:sid/commit", h.Commit)
		grp.DELETE("/layout/sessions/:sid", h.Discard)
	}
	return r
}

func (r *layoutRig) open(t *testing.T) sessionResp {
	t.Helper()
	rec := call(r.e, http.MethodPost, "/v1/halls/1/layout/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResp](t, rec)
}

type eventsResp struct {
	Session sessionResp `json:"session"`
	Applied int         `json:"applied"`
	Commits int         `json:"commits"`
}

func positionOf(st layout.State, id uint64) layout.Point {
	for _, t := range st.Tables {
		if t.ID == id {
			return t.Position
		}
	}
	return layout.Point{X: -1, Y: -1}
}

func TestOpenSession(t *testing.T) {
	r := newLayoutRig(t)

	s := r.open(t)

	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, uint64(1), s.HallID)
	assert.Equal(t, int64(1), s.Version)
	assert.False(t, s.Dirty)
	assert.Equal(t, layout.Bounds{Width: 800, Height: 600}, s.State.Bounds)
	assert.Len(t, s.State.Tables, 2)
	assert.Equal(t, 1, r.store.Len())

	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodPost, "/v1/halls/5/layout/sessions", "").Code)
}

func TestDragAcrossRequestsThenCommit(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	base := "/v1/layout/sessions/" + s.SessionID

	rec := call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"down","x":10,"y":10},{"type":"move","x":30,"y":10}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	mid := decode[eventsResp](t, rec)
	assert.Equal(t, 2, mid.Applied)
	assert.Zero(t, mid.Commits)
	require.NotNil(t, mid.Session.State.Drag, "drag survives between requests")
	assert.Equal(t, layout.Point{X: 20, Y: 0}, positionOf(mid.Session.State, 1), "rendered with the drag offset")

	rec = call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"up"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[eventsResp](t, rec)
	assert.Equal(t, 1, done.Commits)
	assert.True(t, done.Session.Dirty)
	assert.Equal(t, layout.Point{X: 5, Y: 0}, positionOf(done.Session.State, 1))
	assert.Equal(t, int64(3), done.Session.Version)
	assert.Empty(t, r.tables.saved, "nothing is written before commit")

	rec = call(r.e, http.MethodPost, base+"/commit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 5.0, r.tables.items[1].PosX)
	assert.Equal(t, 130.0, r.tables.items[2].PosX)
	require.Len(t, r.tables.saved, 1)
	assert.Len(t, r.tables.saved[0], 2)

	assert.Equal(t, []string{queue.LayoutCommitted}, r.pub.kinds())
	ev, ok := r.pub.events[0].payload.(queue.LayoutCommittedEvent)
	require.True(t, ok)
	assert.Equal(t, "Main", ev.HallName)
	assert.Equal(t, testOwner, ev.UserID)
	assert.Equal(t, s.SessionID, ev.SessionID)

	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodGet, base, "").Code, "session is dropped after commit")
}

func TestCommitFinishesGestureInProgress(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	base := "/v1/layout/sessions/" + s.SessionID

	rec := call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"down","x":410,"y":10},{"type":"move","x":460,"y":310}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(r.e, http.MethodPost, base+"/commit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Click at 410 missed both tables, so the gesture was a marquee.
	assert.Equal(t, 0.0, r.tables.items[1].PosX)

	s = r.open(t)
	base = "/v1/layout/sessions/" + s.SessionID
	call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"down","x":140,"y":10},{"type":"move","x":540,"y":310}]}`)
	require.Equal(t, http.StatusOK, call(r.e, http.MethodPost, base+"/commit", "").Code)
	assert.Equal(t, 530.0, r.tables.items[2].PosX)
	assert.Equal(t, 300.0, r.tables.items[2].PosY)
}

func TestEventsValidation(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	path := "/v1/layout/sessions/" + s.SessionID + "/events"

	tooMany := `{"events":[` + strings.TrimSuffix(strings.Repeat(`{"type":"move","x":1,"y":1},`, maxEventBatch+1), ",") + `]}`
	tests := []struct {
		name string
		body string
	}{
		{"empty batch", `{"events":[]}`},
		{"missing events", `{}`},
		{"unknown type", `{"events":[{"type":"down","x":1,"y":1},{"type":"wheel"}]}`},
		{"too many", tooMany},
		{"malformed", `{"events":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, call(r.e, http.MethodPost, path, tt.body).Code)
		})
	}

	got, err := r.store.Get(context.Background(), s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version, "rejected batches leave the draft untouched")
	assert.Nil(t, got.Snapshot.Marquee)
}

func TestSessionsArePrivate(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	base := "/other/layout/sessions/" + s.SessionID

	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodGet, base, "").Code)
	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"up"}]}`).Code)
	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodPost, base+"/commit", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodDelete, base, "").Code)
	assert.Equal(t, 1, r.store.Len())
	assert.Empty(t, r.tables.saved)
}

func TestCommitStaleLayout(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	base := "/v1/layout/sessions/" + s.SessionID
	rec := call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"down","x":10,"y":10},{"type":"move","x":10,"y":60},{"type":"up"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delete(r.tables.items, 2)

	rec = call(r.e, http.MethodPost, base+"/commit", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, r.pub.kinds())
	assert.Equal(t, 1, r.store.Len(), "a failed commit keeps the draft")
}

func TestCommitCleanDraftWritesNothing(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	base := "/v1/layout/sessions/" + s.SessionID

	// A click on a table and a marquee move nothing.
	rec := call(r.e, http.MethodPost, base+"/events", `{"events":[{"type":"down","x":10,"y":10},{"type":"up"},{"type":"down","x":700,"y":500},{"type":"move","x":1,"y":1},{"type":"up"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.False(t, decode[eventsResp](t, rec).Session.Dirty)

	rec = call(r.e, http.MethodPost, base+"/commit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		HallID uint64         `json:"hall_id"`
		Tables []layout.Table `json:"tables"`
		Saved  bool           `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, uint64(1), out.HallID)
	assert.False(t, out.Saved)
	assert.Len(t, out.Tables, 2)

	assert.Empty(t, r.tables.saved, "no transaction for a clean draft")
	assert.Empty(t, r.pub.kinds(), "no layout.committed event")
	assert.Zero(t, r.store.Len(), "the draft is still dropped")
}

func TestDiscardSession(t *testing.T) {
	r := newLayoutRig(t)
	s := r.open(t)
	path := fmt.Sprintf("/v1/layout/sessions/%s", s.SessionID)

	assert.Equal(t, http.StatusNoContent, call(r.e, http.MethodDelete, path, "").Code)
	assert.Zero(t, r.store.Len())
	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, call(r.e, http.MethodGet, "/v1/layout/sessions/nope", "").Code)
}
