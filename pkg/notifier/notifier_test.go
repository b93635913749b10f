package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/telegram"
	"github.com/tico-news/newsmonitor/pkg/trigger"
	testdb "github.com/tico-news/newsmonitor/test/database"
)

func TestFormatMessage(t *testing.T) {
	candidate := models.Candidate{
		ArticleID: 7,
		Timestamp: time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC),
		URL:       "https://www.crhoy.com/nacionales/nota-7/",
		Category:  "incidents/roads",
	}

	got := formatMessage(candidate, "Crash closed Route 27. Delays expected!\n", time.UTC)

	lines := strings.Split(got, "\n\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "_2024/03/10 14:30_", lines[0])
	assert.Equal(t, `Crash closed Route 27\. Delays expected\!`, lines[1])
	assert.Equal(t, `https://www\.crhoy\.com/nacionales/nota\-7/`, lines[2])
	assert.Equal(t, `\#incidents \#roads`, lines[3])
}

func TestFormatMessageSingleLevelCategory(t *testing.T) {
	candidate := models.Candidate{
		Timestamp: time.Date(2024, 3, 10, 8, 5, 0, 0, time.UTC),
		URL:       "https://www.crhoy.com/x/",
		Category:  "weather",
	}
	got := formatMessage(candidate, "Sunny.", time.UTC)
	assert.True(t, strings.HasSuffix(got, `\#weather`))
}

func TestFormatMessageZoneConversion(t *testing.T) {
	zone := time.FixedZone("CR", -6*3600)
	candidate := models.Candidate{
		Timestamp: time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
		URL:       "https://www.crhoy.com/x/",
		Category:  "weather",
	}
	got := formatMessage(candidate, "Sunny.", zone)
	assert.True(t, strings.HasPrefix(got, "_2024/03/10 12:00_"))
}

// fakeBotAPI answers getMe and sendMessage, recording message texts.
type fakeBotAPI struct {
	mu        sync.Mutex
	texts     []string
	failSend  bool
	failGetMe bool
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.failGetMe {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"ok":false,"error_code":502,"description":"Bad Gateway"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"newsbot","username":"newsbot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.failSend {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request"}`))
				return
			}
			_ = r.ParseForm()
			f.texts = append(f.texts, r.Form.Get("text"))
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":-100},"date":0,"text":""}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

type fixture struct {
	notifier *Notifier
	store    *store.Store
	files    *storage.Store
	bot      *fakeBotAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	bot := &fakeBotAPI{}
	srv := httptest.NewServer(bot.handler())
	t.Cleanup(srv.Close)

	tg, err := telegram.NewClient("token", "@tico_news", logger,
		telegram.WithEndpoint(srv.URL+"/bot%s/%s"))
	require.NoError(t, err)

	dbClient := testdb.NewTestClient(t)
	st := store.New(dbClient.Pool(), logger)
	files := storage.New(t.TempDir(), time.UTC)

	triggers, err := trigger.NewService(
		[]trigger.TimeOfDay{{Hour: 0, Minute: 0}}, time.UTC, 5*time.Minute)
	require.NoError(t, err)

	n := New(st, files, tg, triggers, config.NotifierConfig{
		TriggerTimes:  []trigger.TimeOfDay{{Hour: 0, Minute: 0}},
		MaxInactivity: 30 * time.Minute,
		BotToken:      "token",
		ChannelID:     "@tico_news",
		MaxRetries:    1,
		MessagesDelay: 10 * time.Millisecond,
	}, logger)

	require.NoError(t, st.AddSmartCategory(context.Background(),
		models.SmartCategory{Name: "weather", Description: "d"}))
	return &fixture{notifier: n, store: st, files: files, bot: bot}
}

// runOnce runs one batch and asserts the transport probe passed.
func (f *fixture) runOnce(t *testing.T) {
	t.Helper()
	ran, err := f.notifier.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
}

// addCandidate inserts an article with a successful verdict and, unless
// skipSummary is set, its channel summary.
func (f *fixture) addCandidate(t *testing.T, id int64, ts time.Time, skipSummary bool) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.InsertArticles(ctx, []store.IndexedArticle{{
		Article: models.Article{
			ID:        id,
			URL:       fmt.Sprintf("https://www.crhoy.com/nacionales/nota-%d/", id),
			Timestamp: ts,
		},
	}}))
	require.NoError(t, f.store.SaveVerdict(ctx, models.Verdict{
		ArticleID: id, Timestamp: ts,
		Relation: models.RelationDirectly, Category: "weather",
	}))
	if skipSummary {
		return
	}
	path, err := f.files.SaveSummary(ts, id, "ru", fmt.Sprintf("Summary %d.", id))
	require.NoError(t, err)
	require.NoError(t, f.store.SaveSummary(ctx, models.Summary{
		ArticleID: id, Lang: "ru", Path: path,
	}))
}

func TestRunOnceSendsOldestFirst(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.addCandidate(t, 2, now.Add(-time.Hour), false)
	f.addCandidate(t, 1, now.Add(-2*time.Hour), false)

	f.runOnce(t)

	require.Len(t, f.bot.texts, 2)
	assert.Contains(t, f.bot.texts[0], "Summary 1")
	assert.Contains(t, f.bot.texts[1], "Summary 2")
	assert.Contains(t, f.bot.texts[0], `\#weather`)

	delivered, err := f.store.DeliveredSince(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, delivered, 2)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, 1, time.Now().UTC().Add(-time.Hour), false)

	f.runOnce(t)
	f.runOnce(t)

	assert.Len(t, f.bot.texts, 1, "already delivered articles must not be re-sent")
}

func TestRunOnceSkipsCandidateWithoutSummary(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.addCandidate(t, 1, now.Add(-2*time.Hour), true)
	f.addCandidate(t, 2, now.Add(-time.Hour), false)

	f.runOnce(t)

	require.Len(t, f.bot.texts, 1)
	assert.Contains(t, f.bot.texts[0], "Summary 2")

	delivered, err := f.store.DeliveredSince(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.NotContains(t, delivered, int64(1), "skipped candidate must stay undelivered")
}

func TestRunOnceRecoversAfterSendFailure(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, 1, time.Now().UTC().Add(-time.Hour), false)

	f.bot.failSend = true
	f.runOnce(t)
	assert.Empty(t, f.bot.texts)

	delivered, err := f.store.DeliveredSince(context.Background(),
		time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, delivered, "failed send must not be recorded as delivered")

	f.bot.mu.Lock()
	f.bot.failSend = false
	f.bot.mu.Unlock()
	f.runOnce(t)
	assert.Len(t, f.bot.texts, 1)
}

func TestRunOnceProbeFailureDoesNotCountAsRun(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, 1, time.Now().UTC().Add(-time.Hour), false)

	f.bot.mu.Lock()
	f.bot.failGetMe = true
	f.bot.mu.Unlock()

	ran, err := f.notifier.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran, "a failed transport probe must leave the batch pending")
	assert.Empty(t, f.bot.texts)

	f.bot.mu.Lock()
	f.bot.failGetMe = false
	f.bot.mu.Unlock()
	f.runOnce(t)
	assert.Len(t, f.bot.texts, 1)
}

func TestDue(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	info := trigger.Info{Current: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}

	assert.True(t, f.notifier.due(now, info), "first iteration always runs")

	f.notifier.lastRun = now.Add(-10 * time.Minute)
	assert.False(t, f.notifier.due(now, info), "recent run after current trigger")

	f.notifier.lastRun = info.Current.Add(-time.Minute)
	assert.True(t, f.notifier.due(now, info), "trigger fired since last run")

	f.notifier.lastRun = now.Add(-31 * time.Minute)
	assert.True(t, f.notifier.due(now, info), "inactivity cap exceeded")
}
