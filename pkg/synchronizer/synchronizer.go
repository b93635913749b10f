// Package synchronizer keeps the article metadata in the database aligned
// with the upstream day indexes: it re-fetches the current day on every
// cycle, tracks missed day ranges as gaps, and backfills the earliest gap
// one cycle at a time.
package synchronizer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/crhoy"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
)

// connectivityProbeTimeout bounds the raw TCP internet probe.
const connectivityProbeTimeout = 5 * time.Second

// Synchronizer is the index synchronization worker.
type Synchronizer struct {
	store  *store.Store
	client *crhoy.Client
	files  *storage.Store
	cfg    config.SynchronizerConfig
	zone   *time.Location
	logger *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.Mutex
	lastCycle time.Time

	seeded bool
}

// New builds a Synchronizer.
func New(st *store.Store, client *crhoy.Client, files *storage.Store,
	cfg config.SynchronizerConfig, zone *time.Location, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  st,
		client: client,
		files:  files,
		cfg:    cfg,
		zone:   zone,
		logger: logger.With("component", "synchronizer"),
		stopCh: make(chan struct{}),
	}
}

// Start begins the synchronization loop in a goroutine.
func (s *Synchronizer) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Synchronizer) run(ctx context.Context) {
	defer s.wg.Done()
	s.logger.Info("synchronizer started", "interval", s.cfg.CheckUpdatesInterval)

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("synchronization cycle failed", "error", err)
		}
		s.markCycle()
		select {
		case <-s.stopCh:
			s.logger.Info("synchronizer shutting down")
			return
		case <-ctx.Done():
			s.logger.Info("context cancelled, synchronizer shutting down")
			return
		case <-time.After(s.cfg.CheckUpdatesInterval):
		}
	}
}

// RunOnce performs one synchronization cycle: connectivity checks, current
// day refresh, day-switch and backfill gap registration, then filling of the
// earliest gap.
func (s *Synchronizer) RunOnce(ctx context.Context) error {
	if !s.client.CheckInternet(connectivityProbeTimeout) {
		s.logger.Warn("no internet connectivity, skipping cycle")
		return nil
	}
	if !s.client.CheckAPIAvailability(ctx) {
		s.logger.Warn("news API unavailable, skipping cycle")
		return nil
	}

	today := dateOnly(time.Now().In(s.zone))

	// Remember the boundary before today's refresh extends it.
	latest, known, err := s.store.LatestKnownDate(ctx)
	if err != nil {
		return err
	}

	if err := s.store.WithTx(ctx, func(tx *store.Store) error {
		return s.processDay(ctx, tx, today)
	}); err != nil {
		return fmt.Errorf("failed to process current day: %w", err)
	}

	// Day switch: every day between the previously latest known day and
	// today needs a re-fetch. The previously latest day is included because
	// its last fetch may predate its final articles.
	if known && latest.Before(today) {
		gaps := ConstructGaps(latest, today, s.cfg.DaysChunkSize)
		if err := s.store.InsertGaps(ctx, gaps); err != nil {
			return err
		}
		s.logger.Info("registered day-switch gaps",
			"from", latest.Format(time.DateOnly), "to", today.Format(time.DateOnly))
	}

	if err := s.seedBackfill(ctx); err != nil {
		return err
	}
	return s.fillEarliestGap(ctx)
}

// seedBackfill registers the historical range [FirstDay, oldest known day) as
// gaps. Runs until it succeeds once; seeded stays false on a store error so
// the next cycle retries.
func (s *Synchronizer) seedBackfill(ctx context.Context) error {
	if s.seeded {
		return nil
	}
	if s.cfg.FirstDay.IsZero() {
		s.seeded = true
		return nil
	}

	oldest, known, err := s.store.OldestKnownDate(ctx)
	if err != nil {
		return err
	}
	first := dateOnly(s.cfg.FirstDay)
	if !known || !first.Before(oldest) {
		s.seeded = true
		return nil
	}
	gaps := ConstructGaps(first, oldest, s.cfg.DaysChunkSize)
	if err := s.store.InsertGaps(ctx, gaps); err != nil {
		return err
	}
	s.seeded = true
	s.logger.Info("registered backfill gaps",
		"from", first.Format(time.DateOnly), "to", oldest.Format(time.DateOnly),
		"gaps", len(gaps))
	return nil
}

// fillEarliestGap processes every day of the earliest gap in one transaction
// and removes the gap row. A mid-gap failure rolls everything back so the gap
// is retried whole on the next cycle.
func (s *Synchronizer) fillEarliestGap(ctx context.Context) error {
	gap, err := s.store.EarliestGap(ctx)
	if err != nil {
		return err
	}
	if gap == nil {
		return nil
	}
	s.logger.Info("filling gap",
		"from", gap.Start.Format(time.DateOnly), "days", gap.Days())

	return s.store.WithTx(ctx, func(tx *store.Store) error {
		for day := gap.Start; day.Before(gap.End); day = day.AddDate(0, 0, 1) {
			if err := s.processDay(ctx, tx, day); err != nil {
				return fmt.Errorf("failed to process day %s: %w", day.Format(time.DateOnly), err)
			}
		}
		return tx.DeleteGap(ctx, *gap)
	})
}

// processDay fetches one day index, archives the raw JSON and records the
// day's articles.
func (s *Synchronizer) processDay(ctx context.Context, tx *store.Store, day time.Time) error {
	idx, raw, err := s.client.FetchDayIndex(ctx, day)
	if err != nil {
		return err
	}
	path, err := s.files.SaveIndex(day, raw)
	if err != nil {
		return err
	}

	items := make([]store.IndexedArticle, 0, len(idx.Items))
	for _, item := range idx.Items {
		ts, err := item.Timestamp(s.zone)
		if err != nil {
			// A single malformed entry must not wedge the whole day forever.
			s.logger.Error("skipping malformed index entry",
				"day", day.Format(time.DateOnly), "id", item.ID, "error", err)
			continue
		}
		indexed := store.IndexedArticle{
			Article: models.Article{ID: item.ID, URL: item.URL, Timestamp: ts},
		}
		if path := item.CategoryPath(); path != "" {
			indexed.Categories = []string{path}
		}
		items = append(items, indexed)
	}

	if err := tx.InsertArticles(ctx, items); err != nil {
		return err
	}
	return tx.SaveDayIndex(ctx, models.DayIndex{Date: day, Path: path})
}

// Name identifies the worker on the status API.
func (s *Synchronizer) Name() string { return "synchronizer" }

// LastCycle reports when the worker last completed a cycle.
func (s *Synchronizer) LastCycle() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle
}

func (s *Synchronizer) markCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycle = time.Now()
}

// ConstructGaps splits the half-open day range [start, end) into gaps of at
// most chunkDays days each.
func ConstructGaps(start, end time.Time, chunkDays int) []models.Gap {
	if chunkDays <= 0 {
		chunkDays = 1
	}
	var gaps []models.Gap
	for day := start; day.Before(end); {
		next := day.AddDate(0, 0, chunkDays)
		if next.After(end) {
			next = end
		}
		gaps = append(gaps, models.Gap{Start: day, End: next})
		day = next
	}
	return gaps
}

// dateOnly strips the time of day, keeping the calendar date as a UTC
// midnight so it maps cleanly onto the DATE columns.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
