// Package notifier posts summaries of fresh relevant articles to a Telegram
// channel at configured times of day.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/telegram"
	"github.com/tico-news/newsmonitor/pkg/trigger"
)

// channelLang selects which stored summary is posted to the channel.
const channelLang = "ru"

// sendRetryPause separates retries of one failed message.
const sendRetryPause = time.Second

// Notifier is the channel notification worker.
type Notifier struct {
	store    *store.Store
	files    *storage.Store
	tg       *telegram.Client
	triggers *trigger.Service
	cfg      config.NotifierConfig
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// lastRun is in-memory only: after a restart the first loop iteration
	// runs a batch immediately, which is safe because delivered articles are
	// tracked in the database.
	lastRun time.Time

	mu        sync.Mutex
	lastCycle time.Time
}

// New builds a Notifier.
func New(st *store.Store, files *storage.Store, tg *telegram.Client,
	triggers *trigger.Service, cfg config.NotifierConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:    st,
		files:    files,
		tg:       tg,
		triggers: triggers,
		cfg:      cfg,
		logger:   logger.With("component", "notifier"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the notification loop in a goroutine.
func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	go n.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() { close(n.stopCh) })
	n.wg.Wait()
}

func (n *Notifier) run(ctx context.Context) {
	defer n.wg.Done()
	n.logger.Info("notifier started",
		"trigger_times", len(n.cfg.TriggerTimes), "max_inactivity", n.cfg.MaxInactivity)

	for {
		now := time.Now().In(n.triggers.Zone())
		info := n.triggers.Info(now)

		if n.due(now, info) {
			ran, err := n.RunOnce(ctx)
			if err != nil {
				n.logger.Error("notification batch failed", "error", err)
			}
			// lastRun advances only when the transport probe passed, so a
			// Telegram outage at a trigger is retried on the next wake.
			if ran {
				n.lastRun = now
			}
		}
		n.markCycle()

		select {
		case <-n.stopCh:
			n.logger.Info("notifier shutting down")
			return
		case <-ctx.Done():
			n.logger.Info("context cancelled, notifier shutting down")
			return
		case <-time.After(n.sleepFor(now, info)):
		}
	}
}

// Name identifies the worker on the status API.
func (n *Notifier) Name() string { return "notifier" }

// LastCycle reports when the worker last completed a cycle.
func (n *Notifier) LastCycle() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastCycle
}

func (n *Notifier) markCycle() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastCycle = time.Now()
}

// due reports whether a batch should run now: a trigger has fired since the
// last run, or the worker has been idle longer than MaxInactivity.
func (n *Notifier) due(now time.Time, info trigger.Info) bool {
	if n.lastRun.IsZero() || n.lastRun.Before(info.Current) {
		return true
	}
	return now.Sub(n.lastRun) >= n.cfg.MaxInactivity
}

// sleepFor bounds the sleep by both the next trigger and the inactivity cap.
func (n *Notifier) sleepFor(now time.Time, info trigger.Info) time.Duration {
	d := info.Next.Sub(now)
	if n.cfg.MaxInactivity < d {
		d = n.cfg.MaxInactivity
	}
	if d < time.Second {
		d = time.Second
	}
	return d
}

// RunOnce posts every undelivered eligible article of the current window,
// oldest first. The bool reports whether the transport probe passed and the
// batch was attempted.
func (n *Notifier) RunOnce(ctx context.Context) (bool, error) {
	if !n.tg.Available() {
		n.logger.Warn("Telegram unavailable, skipping batch")
		return false, nil
	}
	info := n.triggers.Now()

	purged, err := n.store.PurgeDeliveriesBefore(ctx, info.ShiftedPrevious)
	if err != nil {
		return true, err
	}
	if purged > 0 {
		n.logger.Info("purged old delivery records", "count", purged)
	}

	delivered, err := n.store.DeliveredSince(ctx, info.ShiftedPrevious)
	if err != nil {
		return true, err
	}
	exclude := make([]int64, 0, len(delivered))
	for id := range delivered {
		exclude = append(exclude, id)
	}

	candidates, err := n.store.NotificationCandidates(ctx, info.ShiftedPrevious, exclude)
	if err != nil {
		return true, err
	}
	if len(candidates) == 0 {
		return true, nil
	}
	n.logger.Info("sending notification batch", "candidates", len(candidates))

	for i, candidate := range candidates {
		select {
		case <-n.stopCh:
			return true, nil
		case <-ctx.Done():
			return true, ctx.Err()
		default:
		}

		started := time.Now()
		if err := n.deliver(ctx, candidate); err != nil {
			n.logger.Error("failed to deliver article",
				"article_id", candidate.ArticleID, "error", err)
			continue
		}
		// Pace consecutive messages to stay under the Bot API flood limits.
		if i < len(candidates)-1 {
			if pause := n.cfg.MessagesDelay - time.Since(started); pause > 0 {
				n.sleep(pause)
			}
		}
	}
	return true, nil
}

// deliver formats and sends one article, recording the delivery on success.
func (n *Notifier) deliver(ctx context.Context, candidate models.Candidate) error {
	path, ok, err := n.store.GetSummaryPath(ctx, candidate.ArticleID, channelLang)
	if err != nil {
		return err
	}
	if !ok {
		n.logger.Warn("candidate has no summary, skipping",
			"article_id", candidate.ArticleID, "lang", channelLang)
		return nil
	}
	summary, err := n.files.LoadSummary(path)
	if err != nil {
		n.logger.Warn("summary file unreadable, skipping",
			"article_id", candidate.ArticleID, "path", path, "error", err)
		return nil
	}

	text := formatMessage(candidate, summary, n.triggers.Zone())

	var lastErr error
	for attempt := 0; attempt <= n.cfg.MaxRetries; attempt++ {
		if lastErr = n.tg.Send(text); lastErr == nil {
			break
		}
		n.logger.Warn("send failed",
			"article_id", candidate.ArticleID, "attempt", attempt+1, "error", lastErr)
		n.sleep(sendRetryPause)
	}
	if lastErr != nil {
		return fmt.Errorf("failed to send after %d attempts: %w", n.cfg.MaxRetries+1, lastErr)
	}

	return n.store.RecordDelivery(ctx, models.Delivery{
		ArticleID: candidate.ArticleID,
		Timestamp: candidate.Timestamp,
	})
}

// formatMessage renders one channel post: publication time, summary, source
// link and category hashtags, escaped for MarkdownV2.
func formatMessage(candidate models.Candidate, summary string, zone *time.Location) string {
	ts := candidate.Timestamp.In(zone).Format("2006/01/02 15:04")

	var tags []string
	for _, part := range strings.Split(candidate.Category, "/") {
		if part != "" {
			tags = append(tags, `\#`+telegram.Escape(part))
		}
	}

	return fmt.Sprintf("_%s_\n\n%s\n\n%s\n\n%s",
		ts,
		telegram.Escape(strings.TrimSpace(summary)),
		telegram.Escape(candidate.URL),
		strings.Join(tags, " "))
}

// sleep waits for d or until stop is signalled.
func (n *Notifier) sleep(d time.Duration) {
	select {
	case <-n.stopCh:
	case <-time.After(d):
	}
}
