package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/persistence/store"
	"github.com/inkroom/inkroom/internal/registry"
)

type captureCreated struct {
	roomIDs []string
}

func (c *captureCreated) RoomCreated(roomID string) {
	c.roomIDs = append(c.roomIDs, roomID)
}

func newTestHandler() (*Handler, *registry.Registry, *store.MemoryRoomStore, *captureCreated) {
	log := logging.NewNop()
	reg := registry.New(nil, log)
	st := store.NewMemoryRoomStore()
	pub := &captureCreated{}
	return NewHandler(reg, st, pub, 20, log), reg, st, pub
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/rooms", h.CreateRoomHandler)
	r.Get("/api/rooms", h.ListRoomsHandler)
	r.Get("/api/rooms/{roomId}", h.GetRoomHandler)
	return r
}

func TestCreateRoom(t *testing.T) {
	h, reg, st, pub := newTestHandler()
	router := newRouter(h)

	body := bytes.NewBufferString(`{"name":"Sketching","isPrivate":true,"password":"pw","userId":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp roomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.RoomID, domain.RoomIDLength)
	assert.Equal(t, "Sketching", resp.Name)
	assert.True(t, resp.IsPrivate)
	assert.Equal(t, "alice", resp.CreatedBy)
	assert.NotContains(t, rec.Body.String(), "pw", "password must never appear in responses")

	// Created room is live and persisted.
	_, ok := reg.Find(context.Background(), resp.RoomID)
	assert.True(t, ok)
	_, err := st.Load(context.Background(), resp.RoomID)
	assert.NoError(t, err)
	assert.Equal(t, []string{resp.RoomID}, pub.roomIDs)
}

func TestCreateRoomDefaultsName(t *testing.T) {
	h, _, _, _ := newTestHandler()
	router := newRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp roomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Room "+resp.RoomID, resp.Name)
	assert.Equal(t, "system", resp.CreatedBy)
}

func TestCreateRoomRejectsBadBody(t *testing.T) {
	h, _, _, _ := newTestHandler()
	router := newRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRoom(t *testing.T) {
	h, reg, _, _ := newTestHandler()
	router := newRouter(h)

	_, err := reg.GetOrCreate(context.Background(), "abc123", "Sketching", "", false, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp roomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp.RoomID)
}

func TestGetRoomNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()
	router := newRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRoomsOmitsPrivate(t *testing.T) {
	h, _, st, _ := newTestHandler()
	router := newRouter(h)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, domain.NewRoom("pub1", "", "", false)))
	require.NoError(t, st.Save(ctx, domain.NewRoom("priv", "", "", true)))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []roomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "pub1", resp[0].RoomID)
}
