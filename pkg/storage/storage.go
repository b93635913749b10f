// Package storage lays out the data directory and persists index JSONs,
// article bodies and summaries.
//
// Layout under the root:
//
//	metadata/YYYY/MM/DD.json             raw day index
//	news/YYYY-MM-DD/HH-MM-{id}.md        article body as markdown
//	news/YYYY-MM-DD/HH-MM-{id}-sum.{lang}.txt
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store resolves and writes files under a fixed root directory.
type Store struct {
	root string
	zone *time.Location
}

// New builds a Store rooted at root. File names derived from article
// timestamps use zone.
func New(root string, zone *time.Location) *Store {
	return &Store{root: root, zone: zone}
}

// IndexPath returns the path for the raw index JSON of day.
func (s *Store) IndexPath(day time.Time) string {
	return filepath.Join(s.root, "metadata",
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		fmt.Sprintf("%02d.json", day.Day()))
}

// ArticlePath returns the path for an article body.
func (s *Store) ArticlePath(ts time.Time, id int64) string {
	ts = ts.In(s.zone)
	return filepath.Join(s.root, "news",
		ts.Format("2006-01-02"),
		fmt.Sprintf("%s-%d.md", ts.Format("15-04"), id))
}

// SummaryPath returns the path for an article summary in lang.
func (s *Store) SummaryPath(ts time.Time, id int64, lang string) string {
	ts = ts.In(s.zone)
	return filepath.Join(s.root, "news",
		ts.Format("2006-01-02"),
		fmt.Sprintf("%s-%d-sum.%s.txt", ts.Format("15-04"), id, lang))
}

// SaveIndex writes the raw index JSON for day and returns its path.
func (s *Store) SaveIndex(day time.Time, raw []byte) (string, error) {
	path := s.IndexPath(day)
	if err := writeFile(path, raw); err != nil {
		return "", fmt.Errorf("failed to save index for %s: %w", day.Format("2006-01-02"), err)
	}
	return path, nil
}

// SaveArticle writes an article body as markdown with a title header and
// returns its path.
func (s *Store) SaveArticle(ts time.Time, id int64, title, markdown string) (string, error) {
	path := s.ArticlePath(ts, id)
	content := fmt.Sprintf("--- title: %s\n\n%s", title, markdown)
	if err := writeFile(path, []byte(content)); err != nil {
		return "", fmt.Errorf("failed to save article %d: %w", id, err)
	}
	return path, nil
}

// SaveSummary writes a plain-text summary and returns its path.
func (s *Store) SaveSummary(ts time.Time, id int64, lang, content string) (string, error) {
	path := s.SummaryPath(ts, id, lang)
	if err := writeFile(path, []byte(content)); err != nil {
		return "", fmt.Errorf("failed to save %s summary for article %d: %w", lang, id, err)
	}
	return path, nil
}

// LoadSummary reads a previously saved summary by its recorded path.
func (s *Store) LoadSummary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load summary %s: %w", path, err)
	}
	return string(data), nil
}

// LoadArticle reads a previously saved article body by its recorded path.
func (s *Store) LoadArticle(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load article body %s: %w", path, err)
	}
	return string(data), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
