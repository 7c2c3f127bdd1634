package analytics

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/server/middleware"
	analyticssvc "github.com/de-tools/orchard-atlas/pkg/services/analytics"
	"github.com/de-tools/orchard-atlas/pkg/services/charts"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Load(ctx context.Context, userID string) ([]domain.DetectionRequest, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.DetectionRequest), args.Error(1)
}

func req(id, fileName, created string, apples, trees int) domain.DetectionRequest {
	at, _ := time.Parse(time.RFC3339, created)
	return domain.DetectionRequest{
		ID:              id,
		UserID:          "user-1",
		FileName:        fileName,
		CreatedAt:       at,
		AppleDetections: make([]domain.Detection, apples),
		TreeDetections:  make([]domain.Detection, trees),
	}
}

func dataset() []domain.DetectionRequest {
	return []domain.DetectionRequest{
		req("1", "a.jpg", "2024-02-01T10:00:00Z", 1, 1),
		req("2", "b.jpg", "2024-02-01T11:00:00Z", 2, 0),
		req("3", "a.jpg", "2024-01-15T10:00:00Z", 3, 2),
		req("4", "z.jpg", "2024-01-15T11:00:00Z", 1, 1),
	}
}

func newRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/analytics", h.GetAnalytics)
	r.Get("/analytics/export", h.Export)
	r.Get("/charts", h.ListCharts)
	return r
}

func serve(t *testing.T, svc *mockService, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(svc, analyticssvc.Settings{PageSize: 10})
	rec := httptest.NewRecorder()
	newRouter(h, "user-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetAnalytics(t *testing.T) {
	svc := &mockService{}
	svc.On("Load", mock.Anything, "user-1").Return(dataset(), nil)

	rec := serve(t, svc, "/analytics?start=2024-02-01&end=2024-02-01&chart=line")

	require.Equal(t, http.StatusOK, rec.Code)
	var view api.AnalyticsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Showing Line Chart for Selected Time Frame", view.Title)
	assert.Equal(t, 3, view.TotalApplesInRange)
	assert.Equal(t, 1, view.TotalTreesInRange)
	assert.Equal(t, "3.00", view.AvgApplesPerTree)
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, "line", view.Chart.Slug)
	assert.Equal(t, 2, view.Pagination.TotalCount)
	assert.False(t, view.Pagination.HasNext)
}

func TestGetAnalytics_Compare(t *testing.T) {
	svc := &mockService{}
	svc.On("Load", mock.Anything, "user-1").Return(dataset(), nil)

	q := url.Values{}
	q.Set("start", "2024-02-01")
	q.Set("end", "2024-02-01")
	q.Set("compare", "true")
	q.Set("compare_start", "2024-01-15")
	q.Set("compare_end", "2024-01-15")
	rec := serve(t, svc, "/analytics?"+q.Encode())

	require.Equal(t, http.StatusOK, rec.Code)
	var view api.AnalyticsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.CompareMode)
	assert.Equal(t, "Comparing Bar Chart for Selected Time Frames", view.Title)
	require.NotNil(t, view.CurrentChartTotals.ApplesComparison)
	assert.Equal(t, 4, *view.CurrentChartTotals.ApplesComparison)
	assert.Equal(t, 3, view.CurrentChartTotals.Apples)
}

func TestGetAnalytics_Pagination(t *testing.T) {
	many := make([]domain.DetectionRequest, 0, 12)
	for i := 0; i < 12; i++ {
		many = append(many, req(string(rune('a'+i)), string(rune('a'+i))+".jpg", "2024-02-01T10:00:00Z", 1, 1))
	}
	svc := &mockService{}
	svc.On("Load", mock.Anything, "user-1").Return(many, nil)

	rec := serve(t, svc, "/analytics?page=3&page_size=5")

	require.Equal(t, http.StatusOK, rec.Code)
	var view api.AnalyticsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, 3, view.Pagination.Page)
	assert.Equal(t, 3, view.Pagination.TotalPages)
	assert.True(t, view.Pagination.HasPrev)
	assert.False(t, view.Pagination.HasNext)
}

func TestGetAnalytics_InvalidControls(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "page size not offered", query: "page_size=7"},
		{name: "unknown chart", query: "chart=sankey"},
		{name: "bad date", query: "start=someday"},
		{name: "bad compare flag", query: "compare=maybe"},
		{name: "zero page", query: "page=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			rec := serve(t, svc, "/analytics?"+tt.query)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
		})
	}
}

func TestGetAnalytics_Unauthenticated(t *testing.T) {
	svc := &mockService{}
	svc.On("Load", mock.Anything, "user-1").Return([]domain.DetectionRequest(nil), domain.ErrUnauthenticated)

	rec := serve(t, svc, "/analytics")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExport_CSV(t *testing.T) {
	svc := &mockService{}
	svc.On("Load", mock.Anything, "user-1").Return(dataset(), nil)

	rec := serve(t, svc, "/analytics/export?format=csv&filename=orchard&start=2024-02-01")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="orchard.csv"`, rec.Header().Get("Content-Disposition"))

	reader := csv.NewReader(strings.NewReader(rec.Body.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"fileName", "apples", "trees"}, records[0])
	assert.Equal(t, []string{"Total Apples", "3"}, records[len(records)-2])
	assert.Equal(t, []string{"Total Trees", "1"}, records[len(records)-1])
}

func TestExport_DefaultNameAndFormats(t *testing.T) {
	for _, format := range []string{"xlsx", "pdf"} {
		t.Run(format, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Load", mock.Anything, "user-1").Return(dataset(), nil)

			rec := serve(t, svc, "/analytics/export?format="+format)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, `attachment; filename="chart-data.`+format+`"`, rec.Header().Get("Content-Disposition"))
			assert.NotZero(t, rec.Body.Len())
		})
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	svc := &mockService{}
	rec := serve(t, svc, "/analytics/export?format=docx")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestListCharts(t *testing.T) {
	rec := serve(t, &mockService{}, "/charts")

	require.Equal(t, http.StatusOK, rec.Code)
	var kinds []api.ChartKind
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	require.Len(t, kinds, len(charts.Kinds))
	assert.Equal(t, api.ChartKind{Name: "Bar Chart", Slug: "bar"}, kinds[0])
	assert.Equal(t, api.ChartKind{Name: "Control Chart", Slug: "control"}, kinds[len(kinds)-1])
}
