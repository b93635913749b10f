package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tico-news/newsmonitor/pkg/models"
)

// PurgeDeliveriesBefore drops delivery records older than the given instant.
// Everything before the current notification window can never be re-sent, so
// the table stays bounded by the window size.
func (s *Store) PurgeDeliveriesBefore(ctx context.Context, ts time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM deliveries WHERE "timestamp" < $1`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeliveredSince returns the IDs of articles already posted with a timestamp
// at or after the given instant.
func (s *Store) DeliveredSince(ctx context.Context, ts time.Time) (map[int64]struct{}, error) {
	rows, err := s.db.Query(ctx, `
		SELECT article_id FROM deliveries WHERE "timestamp" >= $1`, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent deliveries: %w", err)
	}
	defer rows.Close()

	delivered := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		delivered[id] = struct{}{}
	}
	return delivered, rows.Err()
}

// NotificationCandidates returns the articles eligible for posting: analyzed
// without skip or failure, with a timestamp at or after the window start and
// not listed in exclude, oldest first.
func (s *Store) NotificationCandidates(ctx context.Context, since time.Time, exclude []int64) ([]models.Candidate, error) {
	if exclude == nil {
		exclude = []int64{}
	}
	rows, err := s.db.Query(ctx, `
		SELECT v.article_id, v."timestamp", a.url, v.category
		FROM verdicts v
		JOIN articles a ON a.id = v.article_id
		WHERE v."timestamp" >= $1
		  AND NOT v.skipped AND NOT v.failed
		  AND NOT (v.article_id = ANY($2))
		ORDER BY v."timestamp" ASC`, since, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to select notification candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ArticleID, &c.Timestamp, &c.URL, &c.Category); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// RecordDelivery marks an article as posted to the channel.
func (s *Store) RecordDelivery(ctx context.Context, d models.Delivery) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO deliveries (article_id, "timestamp") VALUES ($1, $2)
		ON CONFLICT (article_id) DO NOTHING`,
		d.ArticleID, d.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record delivery of article %d: %w", d.ArticleID, err)
	}
	return nil
}
