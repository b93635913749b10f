package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tico-news/newsmonitor/pkg/models"
)

// IndexedArticle pairs an article with the site category paths it was listed
// under in the day index.
type IndexedArticle struct {
	Article    models.Article
	Categories []string
}

// InsertArticles stores newly discovered articles together with their site
// categories. Articles already present are left untouched, so re-synchronizing
// a day never resets download state.
func (s *Store) InsertArticles(ctx context.Context, items []IndexedArticle) error {
	for _, item := range items {
		_, err := s.db.Exec(ctx, `
			INSERT INTO articles (id, url, "timestamp", body_path, skipped, failed)
			VALUES ($1, $2, $3, NULL, FALSE, FALSE)
			ON CONFLICT DO NOTHING`,
			item.Article.ID, item.Article.URL, item.Article.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert article %d: %w", item.Article.ID, err)
		}
		for _, category := range item.Categories {
			if _, err := s.db.Exec(ctx, `
				INSERT INTO categories (name) VALUES ($1)
				ON CONFLICT DO NOTHING`, category); err != nil {
				return fmt.Errorf("failed to insert category %q: %w", category, err)
			}
			if _, err := s.db.Exec(ctx, `
				INSERT INTO article_categories (article_id, category)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, item.Article.ID, category); err != nil {
				return fmt.Errorf("failed to link article %d to category %q: %w",
					item.Article.ID, category, err)
			}
		}
	}
	return nil
}

// DownloadBatch selects up to limit pending articles. Articles inside the
// current notification window (timestamp at or after shiftedPrevious) come
// first, oldest first; any remaining slots are filled with older backlog
// articles, newest first.
func (s *Store) DownloadBatch(ctx context.Context, shiftedPrevious time.Time, limit int) ([]models.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	recent, err := s.selectPending(ctx, `
		SELECT id, url, "timestamp", COALESCE(body_path, ''), skipped, failed
		FROM articles
		WHERE body_path IS NULL AND NOT skipped AND NOT failed
		  AND "timestamp" >= $1
		ORDER BY "timestamp" ASC
		LIMIT $2`, shiftedPrevious, limit)
	if err != nil {
		return nil, err
	}
	if len(recent) >= limit {
		return recent, nil
	}
	backlog, err := s.selectPending(ctx, `
		SELECT id, url, "timestamp", COALESCE(body_path, ''), skipped, failed
		FROM articles
		WHERE body_path IS NULL AND NOT skipped AND NOT failed
		  AND "timestamp" < $1
		ORDER BY "timestamp" DESC
		LIMIT $2`, shiftedPrevious, limit-len(recent))
	if err != nil {
		return nil, err
	}
	return append(recent, backlog...), nil
}

func (s *Store) selectPending(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.Timestamp, &a.BodyPath, &a.Skipped, &a.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ArticleCategories returns the site category paths the article was indexed
// under.
func (s *Store) ArticleCategories(ctx context.Context, articleID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT category FROM article_categories
		WHERE article_id = $1
		ORDER BY category`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories of article %d: %w", articleID, err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SetArticleBody records where the downloaded article body was stored.
func (s *Store) SetArticleBody(ctx context.Context, articleID int64, path string) error {
	return s.updateArticle(ctx, `UPDATE articles SET body_path = $2 WHERE id = $1`, articleID, path)
}

// MarkArticleSkipped marks an article as permanently skipped.
func (s *Store) MarkArticleSkipped(ctx context.Context, articleID int64) error {
	return s.updateArticle(ctx, `UPDATE articles SET skipped = TRUE WHERE id = $1`, articleID)
}

// MarkArticleFailed marks an article as permanently failed to download.
func (s *Store) MarkArticleFailed(ctx context.Context, articleID int64) error {
	return s.updateArticle(ctx, `UPDATE articles SET failed = TRUE WHERE id = $1`, articleID)
}

func (s *Store) updateArticle(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %v not found", args[0])
	}
	return nil
}
