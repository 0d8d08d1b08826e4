package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddCategory inserts a category. Either name (fixed taxonomy) or
// clusterNumber (unsupervised tier) is set; both may be nil for a bare row.
func (s *SQLiteStore) AddCategory(ctx context.Context, name *string, clusterNumber *int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO category (name, cluster_number) VALUES (?, ?)`,
		name, clusterNumber)
	if err != nil {
		return 0, fmt.Errorf("inserting category: %w", err)
	}
	return result.LastInsertId()
}

// CategoryByName looks a category up by its human label.
// Returns nil, nil when no category matches.
func (s *SQLiteStore) CategoryByName(ctx context.Context, name string) (*Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, cluster_number, name, keywords, cached_keywords
		 FROM category WHERE name = ?`, name))
}

// CategoryByClusterNumber looks a category up by its unsupervised-tier label.
// Returns nil, nil when no category matches.
func (s *SQLiteStore) CategoryByClusterNumber(ctx context.Context, clusterNumber int64) (*Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, cluster_number, name, keywords, cached_keywords
		 FROM category WHERE cluster_number = ?`, clusterNumber))
}

// ListCategories returns all categories ordered by id.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cluster_number, name, keywords, cached_keywords
		 FROM category ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.ClusterNumber, &c.Name, &c.Keywords, &c.CachedKeyword); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategoryKeywords replaces a category's keyword text and refreshes the
// cached copy reused across runs.
func (s *SQLiteStore) UpdateCategoryKeywords(ctx context.Context, id int64, keywords string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE category SET keywords = ?, cached_keywords = ? WHERE id = ?`,
		keywords, keywords, id)
	if err != nil {
		return fmt.Errorf("updating category %d keywords: %w", id, err)
	}
	return nil
}

// UpdateCategoryName sets a category's human label.
func (s *SQLiteStore) UpdateCategoryName(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE category SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("updating category %d name: %w", id, err)
	}
	return nil
}

// ChannelKeywordsForCluster returns the keyword strings of every channel
// assigned to the category carrying the given cluster number.
func (s *SQLiteStore) ChannelKeywordsForCluster(ctx context.Context, clusterNumber int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.keywords
		 FROM channel c
		 INNER JOIN category cat ON c.category_id = cat.id
		 WHERE cat.cluster_number = ? AND c.keywords IS NOT NULL`, clusterNumber)
	if err != nil {
		return nil, fmt.Errorf("selecting cluster %d keywords: %w", clusterNumber, err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scanning cluster keywords row: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func scanCategory(row *sql.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.ClusterNumber, &c.Name, &c.Keywords, &c.CachedKeyword)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}
