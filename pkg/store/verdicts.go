package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tico-news/newsmonitor/pkg/models"
)

// GetVerdict returns the analysis verdict for an article, or nil when none
// exists yet.
func (s *Store) GetVerdict(ctx context.Context, articleID int64) (*models.Verdict, error) {
	var v models.Verdict
	err := s.db.QueryRow(ctx, `
		SELECT article_id, "timestamp", relation, category, skipped, failed
		FROM verdicts WHERE article_id = $1`, articleID).
		Scan(&v.ArticleID, &v.Timestamp, &v.Relation, &v.Category, &v.Skipped, &v.Failed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select verdict for article %d: %w", articleID, err)
	}
	return &v, nil
}

// SaveVerdict inserts or replaces the verdict for an article. Replacing lets
// a later run retry an article whose previous analysis failed.
func (s *Store) SaveVerdict(ctx context.Context, v models.Verdict) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO verdicts (article_id, "timestamp", relation, category, skipped, failed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (article_id) DO UPDATE SET
			"timestamp" = EXCLUDED."timestamp",
			relation = EXCLUDED.relation,
			category = EXCLUDED.category,
			skipped = EXCLUDED.skipped,
			failed = EXCLUDED.failed`,
		v.ArticleID, v.Timestamp, v.Relation, v.Category, v.Skipped, v.Failed)
	if err != nil {
		return fmt.Errorf("failed to save verdict for article %d: %w", v.ArticleID, err)
	}
	return nil
}

// SaveSummary records where a per-language summary file was stored.
func (s *Store) SaveSummary(ctx context.Context, sum models.Summary) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO summaries (article_id, lang, path)
		VALUES ($1, $2, $3)
		ON CONFLICT (article_id, lang) DO UPDATE SET path = EXCLUDED.path`,
		sum.ArticleID, sum.Lang, sum.Path)
	if err != nil {
		return fmt.Errorf("failed to save %s summary for article %d: %w",
			sum.Lang, sum.ArticleID, err)
	}
	return nil
}

// GetSummaryPath returns the stored summary file path for an article in the
// given language, or ok=false when it was never summarized in that language.
func (s *Store) GetSummaryPath(ctx context.Context, articleID int64, lang string) (string, bool, error) {
	var path string
	err := s.db.QueryRow(ctx, `
		SELECT path FROM summaries WHERE article_id = $1 AND lang = $2`,
		articleID, lang).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to select %s summary for article %d: %w",
			lang, articleID, err)
	}
	return path, true, nil
}
