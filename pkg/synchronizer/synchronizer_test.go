package synchronizer_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/crhoy"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/synchronizer"
	testdb "github.com/tico-news/newsmonitor/test/database"
)

func TestConstructGaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	tests := map[string]struct {
		start, end time.Time
		chunk      int
		want       []models.Gap
	}{
		"exact chunks": {
			start: day(1), end: day(7), chunk: 3,
			want: []models.Gap{
				{Start: day(1), End: day(4)},
				{Start: day(4), End: day(7)},
			},
		},
		"trailing partial chunk": {
			start: day(1), end: day(8), chunk: 3,
			want: []models.Gap{
				{Start: day(1), End: day(4)},
				{Start: day(4), End: day(7)},
				{Start: day(7), End: day(8)},
			},
		},
		"single day": {
			start: day(5), end: day(6), chunk: 5,
			want: []models.Gap{{Start: day(5), End: day(6)}},
		},
		"empty range": {
			start: day(5), end: day(5), chunk: 5,
			want:  nil,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, synchronizer.ConstructGaps(tc.start, tc.end, tc.chunk))
		})
	}
}

// spanishDate renders a day the way the upstream index encodes dates.
func spanishDate(day time.Time) string {
	months := []string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}
	return fmt.Sprintf("%s %d, %d", months[day.Month()-1], day.Day(), day.Year())
}

// indexServer serves per-day index payloads and 404 for unknown days.
type indexServer struct {
	mu      sync.Mutex
	indexes map[string]string // "2024-01-05" -> JSON body
	hits    map[string]int
}

func newIndexServer() *indexServer {
	return &indexServer{indexes: make(map[string]string), hits: make(map[string]int)}
}

func (s *indexServer) hitCount(day time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[day.Format(time.DateOnly)]
}

func (s *indexServer) setDay(day time.Time, articles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[day.Format(time.DateOnly)] = fmt.Sprintf(`{"ultimas":[%s]}`,
		strings.Join(articles, ","))
}

func (s *indexServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Path is /ultimas/YYYY-MM-DD.json
		day := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/ultimas/"), ".json")
		s.hits[day]++
		body, ok := s.indexes[day]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
}

func testArticle(id int64, day time.Time, hour string) string {
	return fmt.Sprintf(`{"id":%d,"url":"https://www.crhoy.com/nacionales/nota-%d/",
		"date":"%s","hour":"%s","categories":[["Nacionales","nacionales"]]}`,
		id, id, spanishDate(day), hour)
}

func newTestSynchronizer(t *testing.T, srv *indexServer, cfg config.SynchronizerConfig) (*synchronizer.Synchronizer, *store.Store) {
	t.Helper()

	backend := httptest.NewServer(srv.handler())
	t.Cleanup(backend.Close)

	logger := slog.New(slog.DiscardHandler)
	client := crhoy.NewClient(5*time.Second, 0, "test", logger,
		crhoy.WithAPIBaseURL(backend.URL+"/"),
		crhoy.WithInternetProbeAddr(backend.Listener.Addr().String()))

	dbClient := testdb.NewTestClient(t)
	st := store.New(dbClient.Pool(), logger)
	files := storage.New(t.TempDir(), time.UTC)

	return synchronizer.New(st, client, files, cfg, time.UTC, logger), st
}

func TestRunOnceRecordsCurrentDay(t *testing.T) {
	srv := newIndexServer()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	srv.setDay(today,
		testArticle(10, today, "9:01 am"),
		testArticle(11, today, "2:30 pm"))

	worker, st := newTestSynchronizer(t, srv, config.SynchronizerConfig{
		CheckUpdatesInterval: time.Minute,
		DaysChunkSize:        5,
	})
	ctx := context.Background()
	require.NoError(t, worker.RunOnce(ctx))

	latest, ok, err := st.LatestKnownDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, today.Format(time.DateOnly), latest.Format(time.DateOnly))

	batch, err := st.DownloadBatch(ctx, today.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(10), batch[0].ID, "morning article sorts first")

	categories, err := st.ArticleCategories(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"nacionales"}, categories)

	gap, err := st.EarliestGap(ctx)
	require.NoError(t, err)
	assert.Nil(t, gap, "fresh database without FIRST_DAY must have no gaps")
}

func TestRunOnceBackfillsFromFirstDay(t *testing.T) {
	srv := newIndexServer()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	firstDay := today.AddDate(0, 0, -3)
	srv.setDay(today, testArticle(20, today, "8:00 am"))
	srv.setDay(firstDay, testArticle(21, firstDay, "11:45 pm"))
	// The two days in between stay 404: published nothing.

	worker, st := newTestSynchronizer(t, srv, config.SynchronizerConfig{
		FirstDay:             firstDay,
		CheckUpdatesInterval: time.Minute,
		DaysChunkSize:        5,
	})
	ctx := context.Background()

	// First cycle records today, seeds the backfill gap and fills it.
	require.NoError(t, worker.RunOnce(ctx))

	oldest, ok, err := st.OldestKnownDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, firstDay.Format(time.DateOnly), oldest.Format(time.DateOnly))

	gap, err := st.EarliestGap(ctx)
	require.NoError(t, err)
	assert.Nil(t, gap, "backfill gap must be removed after a successful fill")

	batch, err := st.DownloadBatch(ctx, today.Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestRunOnceGapRetriedAfterFailure(t *testing.T) {
	srv := newIndexServer()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	firstDay := today.AddDate(0, 0, -2)
	srv.setDay(today, testArticle(30, today, "8:00 am"))
	// Malformed payload makes the gap day fail without being a 404.
	srv.mu.Lock()
	srv.indexes[firstDay.Format(time.DateOnly)] = `{"wrong":"shape"}`
	srv.mu.Unlock()

	worker, st := newTestSynchronizer(t, srv, config.SynchronizerConfig{
		FirstDay:             firstDay,
		CheckUpdatesInterval: time.Minute,
		DaysChunkSize:        5,
	})
	ctx := context.Background()

	err := worker.RunOnce(ctx)
	require.Error(t, err, "malformed gap day must fail the cycle")

	gap, err := st.EarliestGap(ctx)
	require.NoError(t, err)
	require.NotNil(t, gap, "failed gap must stay for the next cycle")
	assert.Equal(t, firstDay.Format(time.DateOnly), gap.Start.Format(time.DateOnly))

	// Upstream recovers; the next cycle drains the gap.
	srv.setDay(firstDay, testArticle(31, firstDay, "10:00 am"))
	require.NoError(t, worker.RunOnce(ctx))

	gap, err = st.EarliestGap(ctx)
	require.NoError(t, err)
	assert.Nil(t, gap)
	assert.Equal(t, 2, srv.hitCount(firstDay), "failed day is fetched again on retry")
}

func TestRunOnceSkipsMalformedIndexEntry(t *testing.T) {
	srv := newIndexServer()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	srv.setDay(today,
		testArticle(40, today, "9:00 am"),
		`{"id":41,"url":"https://www.crhoy.com/x/","date":"Nonsense 99, 2024","hour":"9:00 am","categories":[]}`)

	worker, st := newTestSynchronizer(t, srv, config.SynchronizerConfig{
		CheckUpdatesInterval: time.Minute,
		DaysChunkSize:        5,
	})
	ctx := context.Background()
	require.NoError(t, worker.RunOnce(ctx))

	batch, err := st.DownloadBatch(ctx, today.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(40), batch[0].ID)
}

func TestRunOnceArchivesRawIndex(t *testing.T) {
	srv := newIndexServer()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	srv.setDay(today, testArticle(50, today, "9:00 am"))

	backend := httptest.NewServer(srv.handler())
	t.Cleanup(backend.Close)

	logger := slog.New(slog.DiscardHandler)
	client := crhoy.NewClient(5*time.Second, 0, "test", logger,
		crhoy.WithAPIBaseURL(backend.URL+"/"),
		crhoy.WithInternetProbeAddr(backend.Listener.Addr().String()))

	dbClient := testdb.NewTestClient(t)
	st := store.New(dbClient.Pool(), logger)
	dataDir := t.TempDir()
	files := storage.New(dataDir, time.UTC)

	worker := synchronizer.New(st, client, files, config.SynchronizerConfig{
		CheckUpdatesInterval: time.Minute,
		DaysChunkSize:        5,
	}, time.UTC, logger)
	require.NoError(t, worker.RunOnce(context.Background()))

	raw, err := os.ReadFile(files.IndexPath(today))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":50`)
}
