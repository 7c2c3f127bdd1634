package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/server/middleware"
	"github.com/de-tools/orchard-atlas/pkg/services/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, userID string) ([]domain.DetectionRequest, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.DetectionRequest), args.Error(1)
}

func (m *mockRepository) Add(ctx context.Context, requests []domain.DetectionRequest) ([]string, error) {
	args := m.Called(ctx, requests)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockRepository) DeleteAll(ctx context.Context, userID string, ids []string) error {
	args := m.Called(ctx, userID, ids)
	return args.Error(0)
}

func sampleRequests() []domain.DetectionRequest {
	mk := func(id, created string, apples, trees int, session string) domain.DetectionRequest {
		at, _ := time.Parse(time.RFC3339, created)
		return domain.DetectionRequest{
			ID:              id,
			UserID:          "user-1",
			FileName:        id + ".jpg",
			CreatedAt:       at,
			Status:          domain.RequestStatusComplete,
			AppleDetections: make([]domain.Detection, apples),
			TreeDetections:  make([]domain.Detection, trees),
			SessionID:       session,
		}
	}
	return []domain.DetectionRequest{
		mk("c", "2024-01-02T09:00:00Z", 0, 4, "s2"),
		mk("b", "2024-01-01T15:00:00Z", 3, 0, "s1"),
		mk("a", "2024-01-01T09:00:00Z", 2, 1, domain.UnknownSession),
	}
}

func newRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/history", h.GetHistory)
	r.Get("/history/stream", h.Stream)
	r.Delete("/history", h.DeleteAll)
	r.Delete("/history/{id}", h.DeleteRequest)
	return r
}

func newHandler(repo *mockRepository) *Handler {
	return NewHandler(repo, nil, Settings{Location: time.UTC, MaxRetries: 3, BaseDelay: time.Millisecond})
}

func TestGetHistory(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, "user-1").Return(sampleRequests(), nil)
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?start=2024-01-01&end=2024-01-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var view api.HistoryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "active", view.State)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 5, view.TotalApples)
	assert.Equal(t, 1, view.TotalTrees)
	require.Len(t, view.ByDate, 1)
	assert.Equal(t, "2024-01-01", view.ByDate[0].Key)
	assert.ElementsMatch(t, []string{"s1", domain.UnknownSession}, view.Sessions)
}

func TestGetHistory_SessionNarrowsBuckets(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, "user-1").Return(sampleRequests(), nil)
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?session=s2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var view api.HistoryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "s2", view.SelectedSession)
	require.Len(t, view.BySession, 1)
	assert.Equal(t, "s2", view.BySession[0].Key)
	assert.Equal(t, 5, view.TotalApples)
	assert.Equal(t, 5, view.TotalTrees)
}

func TestGetHistory_BadDate(t *testing.T) {
	repo := &mockRepository{}
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?start=yesterday-ish", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetHistory_StoreError(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, "user-1").Return([]domain.DetectionRequest(nil), fmt.Errorf("boom"))
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDeleteRequest(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		expected int
	}{
		{name: "deleted", expected: http.StatusNoContent},
		{name: "missing", storeErr: fmt.Errorf("wrapped: %w", domain.ErrNotFound), expected: http.StatusNotFound},
		{name: "store failure", storeErr: fmt.Errorf("disk full"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			repo.On("Delete", mock.Anything, "user-1", "b").Return(tt.storeErr)
			router := newRouter(newHandler(repo), "user-1")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history/b", nil))

			assert.Equal(t, tt.expected, rec.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestDeleteAll_ConfirmationMismatch(t *testing.T) {
	repo := &mockRepository{}
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"confirmation":"delete-all-history"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAll_FilteredRange(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, "user-1").Return(sampleRequests(), nil)
	repo.On("DeleteAll", mock.Anything, "user-1", []string{"b", "a"}).Return(nil)
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"confirmation":"` + domain.DeleteAllConfirmation + `"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history?end=2024-01-01", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.DeleteAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Deleted)
	repo.AssertExpectations(t)
}

func TestDeleteAll_InvalidBody(t *testing.T) {
	repo := &mockRepository{}
	router := newRouter(newHandler(repo), "user-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_PushesSnapshots(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, "user-1").Return(sampleRequests(), nil)
	broker := live.NewBroker()
	feed, err := live.NewStoreFeed(repo, broker)
	require.NoError(t, err)

	h := NewHandler(repo, feed, Settings{Location: time.UTC, MaxRetries: 3, BaseDelay: time.Millisecond})
	srv := httptest.NewServer(newRouter(h, "user-1"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/history/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	active := readUntil(t, conn, func(v api.HistoryView) bool { return v.State == "active" })
	assert.Equal(t, 3, active.Count)

	require.NoError(t, conn.WriteJSON(streamCommand{Type: "session", Session: "s1"}))
	narrowed := readUntil(t, conn, func(v api.HistoryView) bool { return v.SelectedSession == "s1" })
	require.Len(t, narrowed.BySession, 1)
	assert.Equal(t, 3, narrowed.Count)

	require.NoError(t, conn.WriteJSON(streamCommand{Type: "range", Start: "2024-01-02", End: "2024-01-02"}))
	ranged := readUntil(t, conn, func(v api.HistoryView) bool { return v.State == "active" && v.Count == 1 })
	assert.Equal(t, 4, ranged.TotalTrees)
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(api.HistoryView) bool) api.HistoryView {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var view api.HistoryView
		require.NoError(t, conn.ReadJSON(&view))
		if match(view) {
			return view
		}
	}
}
