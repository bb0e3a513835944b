package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/namewall-backend/internal/handlers"
	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/metrics"
	"github.com/AnshRaj112/namewall-backend/internal/models"
	"github.com/AnshRaj112/namewall-backend/internal/realtime"
	"github.com/AnshRaj112/namewall-backend/internal/services"
)

type namesRepo struct {
	entries []models.NameEntry
}

func (r *namesRepo) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	return r.entries, nil
}

func (r *namesRepo) FindOrCreateName(ctx context.Context, e models.NameEntry) (models.NameEntry, bool, error) {
	for _, existing := range r.entries {
		if existing.Key() == e.Key() {
			return existing, false, nil
		}
	}
	e.ID = "id-" + e.Key()
	r.entries = append(r.entries, e)
	return e, true, nil
}

type feedbackRepo struct {
	entries []models.FeedbackEntry
}

func (r *feedbackRepo) InsertFeedback(ctx context.Context, e models.FeedbackEntry) (models.FeedbackEntry, error) {
	e.ID = "fb"
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *feedbackRepo) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	return r.entries, nil
}

func newRouter(t *testing.T) (*chi.Mux, *metrics.Metrics) {
	t.Helper()
	m, err := metrics.New()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>wall</html>"), 0o644))

	registry := services.NewNameRegistry(&namesRepo{},
		services.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
		services.WithLogger(logger.Discard()),
	)
	sink := services.NewFeedbackSink(&feedbackRepo{}, m, logger.Discard())
	h := handlers.New(registry, sink, realtime.NewHub(m, logger.Discard()), logger.Discard())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	SetupRoutes(r, h, m.Handler(), dir)
	return r, m
}

func TestRoutesEndToEnd(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/names", strings.NewReader(`{"name":"Alice"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"id-alice","name":"Alice","createdAt":"2024-01-01T00:00:00Z"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/names", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"id-alice","name":"Alice","createdAt":"2024-01-01T00:00:00Z"}]`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"message":"hi","rating":5}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feedback", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"hi"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesFallBackToClientShell(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wall/about", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wall")
}

func TestRoutesExposeMetrics(t *testing.T) {
	r, _ := newRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/names", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `namewall_http_requests_total{method="GET",route="/api/names",status="200"} 1`)
}
