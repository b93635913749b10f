package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tico-news/newsmonitor/pkg/models"
)

// SaveDayIndex records that the index for the given day was fetched and where
// the raw JSON was persisted. Re-fetching a day updates the path.
func (s *Store) SaveDayIndex(ctx context.Context, idx models.DayIndex) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO day_indexes (date, path) VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET path = EXCLUDED.path`,
		idx.Date, idx.Path)
	if err != nil {
		return fmt.Errorf("failed to save day index for %s: %w",
			idx.Date.Format(time.DateOnly), err)
	}
	return nil
}

// LatestKnownDate returns the most recent day with a stored index, or
// ok=false when no day was ever indexed.
func (s *Store) LatestKnownDate(ctx context.Context) (time.Time, bool, error) {
	return s.boundaryDate(ctx, `SELECT date FROM day_indexes ORDER BY date DESC LIMIT 1`)
}

// OldestKnownDate returns the earliest day with a stored index, or ok=false
// when no day was ever indexed.
func (s *Store) OldestKnownDate(ctx context.Context) (time.Time, bool, error) {
	return s.boundaryDate(ctx, `SELECT date FROM day_indexes ORDER BY date ASC LIMIT 1`)
}

func (s *Store) boundaryDate(ctx context.Context, query string) (time.Time, bool, error) {
	var day time.Time
	err := s.db.QueryRow(ctx, query).Scan(&day)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to select boundary date: %w", err)
	}
	return day, true, nil
}

// InsertGaps records date intervals whose day indexes still need fetching.
// Each gap is stored as a half-open daterange.
func (s *Store) InsertGaps(ctx context.Context, gaps []models.Gap) error {
	for _, g := range gaps {
		_, err := s.db.Exec(ctx, `
			INSERT INTO gaps (gap) VALUES (daterange($1::date, $2::date, '[)'))
			ON CONFLICT DO NOTHING`, g.Start, g.End)
		if err != nil {
			return fmt.Errorf("failed to insert gap [%s, %s): %w",
				g.Start.Format(time.DateOnly), g.End.Format(time.DateOnly), err)
		}
	}
	return nil
}

// EarliestGap returns the gap covering the oldest dates, or nil when no gaps
// remain.
func (s *Store) EarliestGap(ctx context.Context) (*models.Gap, error) {
	var g models.Gap
	err := s.db.QueryRow(ctx, `
		SELECT lower(gap), upper(gap) FROM gaps
		ORDER BY gap LIMIT 1`).Scan(&g.Start, &g.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select earliest gap: %w", err)
	}
	return &g, nil
}

// DeleteGap removes every gap row fully containing the given interval.
func (s *Store) DeleteGap(ctx context.Context, g models.Gap) error {
	// Containment is checked on both endpoints; the upper bound is exclusive
	// so the last covered day is End minus one.
	lastDay := g.End.AddDate(0, 0, -1)
	_, err := s.db.Exec(ctx, `
		DELETE FROM gaps WHERE gap @> $1::date AND gap @> $2::date`,
		g.Start, lastDay)
	if err != nil {
		return fmt.Errorf("failed to delete gap [%s, %s): %w",
			g.Start.Format(time.DateOnly), g.End.Format(time.DateOnly), err)
	}
	return nil
}
