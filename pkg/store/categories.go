package store

import (
	"context"
	"fmt"

	"github.com/tico-news/newsmonitor/pkg/models"
)

// SeedSmartCategories inserts the initial category catalog, leaving any
// already present rows untouched so runtime-added categories survive restarts.
func (s *Store) SeedSmartCategories(ctx context.Context, categories []models.SmartCategory) error {
	for _, c := range categories {
		if err := s.AddSmartCategory(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// AddSmartCategory inserts one category, ignoring duplicates.
func (s *Store) AddSmartCategory(ctx context.Context, c models.SmartCategory) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO smart_categories (name, description, ignore)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`,
		c.Name, c.Description, c.Ignore)
	if err != nil {
		return fmt.Errorf("failed to insert smart category %q: %w", c.Name, err)
	}
	return nil
}

// SmartCatalog returns name to description for every category except the
// unknown sentinel, which must never be offered to the LLM.
func (s *Store) SmartCatalog(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, description FROM smart_categories
		WHERE name <> $1`, models.UnknownCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to select smart categories: %w", err)
	}
	defer rows.Close()

	catalog := make(map[string]string)
	for rows.Next() {
		var name, description string
		if err := rows.Scan(&name, &description); err != nil {
			return nil, fmt.Errorf("failed to scan smart category row: %w", err)
		}
		catalog[name] = description
	}
	return catalog, rows.Err()
}

// IgnoredSmartCategories returns the set of category names whose articles are
// never summarized or delivered.
func (s *Store) IgnoredSmartCategories(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM smart_categories WHERE ignore`)
	if err != nil {
		return nil, fmt.Errorf("failed to select ignored smart categories: %w", err)
	}
	defer rows.Close()

	ignored := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan smart category row: %w", err)
		}
		ignored[name] = struct{}{}
	}
	return ignored, rows.Err()
}
