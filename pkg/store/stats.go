package store

import (
	"context"
	"fmt"
)

// Stats summarizes the pipeline state for the status API.
type Stats struct {
	TotalArticles   int64 `json:"total_articles"`
	PendingArticles int64 `json:"pending_articles"`
	SkippedArticles int64 `json:"skipped_articles"`
	FailedArticles  int64 `json:"failed_articles"`
	KnownDays       int64 `json:"known_days"`
	OpenGaps        int64 `json:"open_gaps"`
	Verdicts        int64 `json:"verdicts"`
	SmartCategories int64 `json:"smart_categories"`
	Deliveries      int64 `json:"deliveries"`
}

// Stats counts the main pipeline tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM articles),
			(SELECT count(*) FROM articles WHERE body_path IS NULL AND NOT skipped AND NOT failed),
			(SELECT count(*) FROM articles WHERE skipped),
			(SELECT count(*) FROM articles WHERE failed),
			(SELECT count(*) FROM day_indexes),
			(SELECT count(*) FROM gaps),
			(SELECT count(*) FROM verdicts),
			(SELECT count(*) FROM smart_categories),
			(SELECT count(*) FROM deliveries)`).
		Scan(&st.TotalArticles, &st.PendingArticles, &st.SkippedArticles,
			&st.FailedArticles, &st.KnownDays, &st.OpenGaps,
			&st.Verdicts, &st.SmartCategories, &st.Deliveries)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return &st, nil
}
