package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tico-news/newsmonitor/pkg/api"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/store"
	testdb "github.com/tico-news/newsmonitor/test/database"
)

// stubWorker satisfies api.Worker for liveness reporting tests.
type stubWorker struct {
	name string
	last time.Time
}

func (w stubWorker) Name() string         { return w.name }
func (w stubWorker) LastCycle() time.Time { return w.last }

func newTestServer(t *testing.T, workers ...api.Worker) (*api.Server, *store.Store) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	client := testdb.NewTestClient(t)
	st := store.New(client.Pool(), logger)
	return api.NewServer(0, client, st, logger, workers...), st
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestStatus(t *testing.T) {
	cycled := time.Date(2024, 3, 10, 11, 55, 0, 0, time.UTC)
	srv, st := newTestServer(t,
		stubWorker{name: "synchronizer", last: cycled},
		stubWorker{name: "downloader"},
	)
	ctx := context.Background()

	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertArticles(ctx, []store.IndexedArticle{
		{Article: models.Article{ID: 1, URL: "https://www.crhoy.com/a/", Timestamp: ts}},
		{Article: models.Article{ID: 2, URL: "https://www.crhoy.com/b/", Timestamp: ts}},
	}))
	require.NoError(t, st.MarkArticleFailed(ctx, 2))
	require.NoError(t, st.InsertGaps(ctx, []models.Gap{
		{Start: ts.AddDate(0, 0, -10), End: ts.AddDate(0, 0, -5)},
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		store.Stats
		Workers map[string]string `json:"workers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, int64(2), status.TotalArticles)
	assert.Equal(t, int64(1), status.PendingArticles)
	assert.Equal(t, int64(1), status.FailedArticles)
	assert.Equal(t, int64(1), status.OpenGaps)
	assert.Zero(t, status.Deliveries)
	assert.Equal(t, "2024-03-10T11:55:00Z", status.Workers["synchronizer"])
	assert.Equal(t, "never", status.Workers["downloader"])
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
