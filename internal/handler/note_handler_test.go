package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/distructnote/api/internal/hasher"
	"github.com/distructnote/api/internal/models"
	"github.com/distructnote/api/internal/noteid"
	"github.com/distructnote/api/internal/repository"
	"github.com/distructnote/api/internal/service"
	"github.com/distructnote/api/pkg/response"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryNoteRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryNoteRepository()
	notes := service.NewNoteService(
		store,
		noteid.New(32),
		hasher.New(bcrypt.MinCost),
		service.NewViewTokenService(service.ViewTokenConfig{Secret: "handler-test", TTL: time.Minute}),
		nil,
		nil,
		nil,
		service.NoteConfig{
			DefaultMaxViews: 1,
			MaxViewsLimit:   100,
			ExpiryWindow:    24 * time.Hour,
			SiteURL:         "http://localhost:8080",
		},
	)
	h := NewNoteHandler(notes)

	router := gin.New()
	router.POST("/notes", h.Create)
	router.GET("/notes/view", h.RedeemView)
	router.GET("/notes/:id", h.Access)
	router.GET("/notes/:id/meta", h.Meta)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func createNote(t *testing.T, router *gin.Engine, payload models.CreateNoteRequest) models.NoteCreated {
	t.Helper()
	w, envelope := doJSON(t, router, http.MethodPost, "/notes", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var created models.NoteCreated
	require.NoError(t, json.Unmarshal(raw, &created))
	return created
}

func TestNoteHandlerCreateAndAccess(t *testing.T) {
	router, _ := newTestRouter(t)

	views := 2
	created := createNote(t, router, models.CreateNoteRequest{Content: "hello world", MaxViews: &views})
	assert.Len(t, created.NoteID, 32)
	assert.Contains(t, created.URL, created.NoteID)

	w, envelope := doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var view models.NoteView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, "hello world", view.Content)
	assert.Equal(t, 1, view.CurrentViews)
	assert.False(t, view.Destroyed)
	assert.NotEmpty(t, view.ViewToken)
}

func TestNoteHandlerCreateInvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoteHandlerCreateEmptyContent(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodPost, "/notes", models.CreateNoteRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "EMPTY_CONTENT", envelope.Error.Code)
}

func TestNoteHandlerCreateInvalidViews(t *testing.T) {
	router, _ := newTestRouter(t)

	zero := 0
	w, envelope := doJSON(t, router, http.MethodPost, "/notes", models.CreateNoteRequest{Content: "x", MaxViews: &zero})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_VIEWS", envelope.Error.Code)
}

func TestNoteHandlerAccessNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodGet, "/notes/0123456789abcdef0123456789abcdef", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestNoteHandlerPasswordFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createNote(t, router, models.CreateNoteRequest{Content: "secret", Password: "hunter2"})

	w, envelope := doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "PASSWORD_REQUIRED", envelope.Error.Code)

	w, envelope = doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID+"?password=wrong", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_PASSWORD", envelope.Error.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID+"?password=hunter2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoteHandlerSingleViewDestroys(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createNote(t, router, models.CreateNoteRequest{Content: "once"})

	w, _ := doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoteHandlerMeta(t *testing.T) {
	router, store := newTestRouter(t)
	created := createNote(t, router, models.CreateNoteRequest{Content: "peek", Password: "p"})

	w, envelope := doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID+"/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var meta models.NoteMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.True(t, meta.Exists)
	assert.True(t, meta.RequiresPassword)

	// The probe must not consume a view.
	note, err := store.FetchActive(context.Background(), created.NoteID)
	require.NoError(t, err)
	assert.Equal(t, 0, note.CurrentViews)

	w, envelope = doJSON(t, router, http.MethodGet, "/notes/missing/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, err = json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.False(t, meta.Exists)
}

func TestNoteHandlerRedeemView(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createNote(t, router, models.CreateNoteRequest{Content: "replay me"})

	_, envelope := doJSON(t, router, http.MethodGet, "/notes/"+created.NoteID, nil)
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var view models.NoteView
	require.NoError(t, json.Unmarshal(raw, &view))
	require.NotEmpty(t, view.ViewToken)

	w, envelope := doJSON(t, router, http.MethodGet, fmt.Sprintf("/notes/view?token=%s", view.ViewToken), nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err = json.Marshal(envelope.Data)
	require.NoError(t, err)
	var replayed models.NoteView
	require.NoError(t, json.Unmarshal(raw, &replayed))
	assert.Equal(t, "replay me", replayed.Content)
	assert.Equal(t, 1, replayed.CurrentViews)

	w, envelope = doJSON(t, router, http.MethodGet, "/notes/view?token=garbage", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, envelope = doJSON(t, router, http.MethodGet, "/notes/view", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
