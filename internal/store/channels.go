package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ChannelByURL looks a channel up by its external URL, the ingestion dedup
// key. Returns nil, nil when no channel matches.
func (s *SQLiteStore) ChannelByURL(ctx context.Context, url string) (*Channel, error) {
	return s.scanChannel(s.db.QueryRowContext(ctx,
		`SELECT id, name, url, description, keywords, is_deleted, category_id
		 FROM channel WHERE url = ?`, url))
}

// AddChannel inserts a new channel discovered during ingestion.
func (s *SQLiteStore) AddChannel(ctx context.Context, name, url string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO channel (name, url) VALUES (?, ?)`,
		strings.TrimSpace(name), url)
	if err != nil {
		return 0, fmt.Errorf("inserting channel: %w", err)
	}
	return result.LastInsertId()
}

// ChannelsMissingDetails returns up to limit channels not yet enriched by the
// sync engine. A NULL description marks a channel as pending.
func (s *SQLiteStore) ChannelsMissingDetails(ctx context.Context, limit int) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, description, keywords, is_deleted, category_id
		 FROM channel WHERE description IS NULL AND is_deleted = 0
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting channels missing details: %w", err)
	}
	defer rows.Close()
	return scanChannels(rows)
}

// CountChannelsMissingDetails reports how many channels still need enrichment.
func (s *SQLiteStore) CountChannelsMissingDetails(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM channel WHERE description IS NULL AND is_deleted = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unenriched channels: %w", err)
	}
	return n, nil
}

// UpdateChannelDetails writes API-sourced metadata onto an existing channel.
func (s *SQLiteStore) UpdateChannelDetails(ctx context.Context, id int64, name, description string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channel SET name = ?, description = ? WHERE id = ?`,
		name, description, id)
	if err != nil {
		return fmt.Errorf("updating channel %d: %w", id, err)
	}
	return nil
}

// DeleteChannel hard-deletes a channel. Videos, activities and stat snapshots
// referencing it are removed by the foreign-key cascade.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channel WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting channel %d: %w", id, err)
	}
	return nil
}

// UpdateChannelKeywords replaces a channel's derived keyword string.
func (s *SQLiteStore) UpdateChannelKeywords(ctx context.Context, id int64, keywords string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channel SET keywords = ? WHERE id = ?`, keywords, id)
	if err != nil {
		return fmt.Errorf("updating channel %d keywords: %w", id, err)
	}
	return nil
}

// ChannelsWithVideoKeywords returns every channel together with the
// concatenation of its videos' keyword strings. Channels without videos are
// included with an empty keyword text so callers can log them.
func (s *SQLiteStore) ChannelsWithVideoKeywords(ctx context.Context) ([]ChannelKeywords, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.category_id, COALESCE(GROUP_CONCAT(v.keywords, ' '), '')
		 FROM channel c LEFT JOIN video v ON v.channel_id = c.id
		 GROUP BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("selecting channel video keywords: %w", err)
	}
	defer rows.Close()
	return scanChannelKeywords(rows)
}

// UncategorizedChannelsWithKeywords returns clustering input: channels that
// no earlier tier has assigned and that have a keyword string.
func (s *SQLiteStore) UncategorizedChannelsWithKeywords(ctx context.Context) ([]ChannelKeywords, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category_id, keywords FROM channel
		 WHERE is_deleted = 0 AND category_id IS NULL AND keywords IS NOT NULL AND keywords != ''
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("selecting uncategorized channels: %w", err)
	}
	defer rows.Close()
	return scanChannelKeywords(rows)
}

// AssignCategoryByExactName assigns a category to every still-unassigned
// channel whose name matches case-insensitively. Returns rows affected.
func (s *SQLiteStore) AssignCategoryByExactName(ctx context.Context, categoryID int64, channelName string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE channel SET category_id = ?
		 WHERE category_id IS NULL AND LOWER(name) = LOWER(?)`,
		categoryID, channelName)
	if err != nil {
		return 0, fmt.Errorf("assigning category by name: %w", err)
	}
	return result.RowsAffected()
}

// AssignCategoryByToken assigns a category to every still-unassigned channel
// whose name or keyword string contains the token, case-insensitively.
func (s *SQLiteStore) AssignCategoryByToken(ctx context.Context, categoryID int64, token string) (int64, error) {
	pattern := "%" + strings.ToLower(token) + "%"
	result, err := s.db.ExecContext(ctx,
		`UPDATE channel SET category_id = ?
		 WHERE category_id IS NULL
		 AND (LOWER(name) LIKE ? OR LOWER(COALESCE(keywords, '')) LIKE ?)`,
		categoryID, pattern, pattern)
	if err != nil {
		return 0, fmt.Errorf("assigning category by token: %w", err)
	}
	return result.RowsAffected()
}

// AssignCategoryIfUnset sets a channel's category only when no earlier tier
// has assigned one. Reports whether the row changed.
func (s *SQLiteStore) AssignCategoryIfUnset(ctx context.Context, channelID, categoryID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE channel SET category_id = ? WHERE id = ? AND category_id IS NULL`,
		categoryID, channelID)
	if err != nil {
		return false, fmt.Errorf("assigning category to channel %d: %w", channelID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LabeledChannelVideoKeywords returns classifier training input: categorized
// channels paired with the concatenation of their videos' keyword strings.
func (s *SQLiteStore) LabeledChannelVideoKeywords(ctx context.Context) ([]ChannelKeywords, error) {
	return s.channelVideoKeywords(ctx, "IS NOT NULL")
}

// UnlabeledChannelVideoKeywords returns prediction input: channels no tier
// has labeled, paired with their videos' keyword strings.
func (s *SQLiteStore) UnlabeledChannelVideoKeywords(ctx context.Context) ([]ChannelKeywords, error) {
	return s.channelVideoKeywords(ctx, "IS NULL")
}

func (s *SQLiteStore) channelVideoKeywords(ctx context.Context, categoryCond string) ([]ChannelKeywords, error) {
	// categoryCond is one of two fixed SQL fragments, never caller input.
	query := fmt.Sprintf(
		`SELECT c.id, c.category_id, GROUP_CONCAT(v.keywords, ' ')
		 FROM channel c
		 INNER JOIN video v ON v.channel_id = c.id
		 WHERE c.category_id %s AND v.keywords IS NOT NULL
		 GROUP BY c.id, c.category_id`, categoryCond)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("selecting channel video keywords: %w", err)
	}
	defer rows.Close()
	return scanChannelKeywords(rows)
}

func (s *SQLiteStore) scanChannel(row *sql.Row) (*Channel, error) {
	c := &Channel{}
	err := row.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.Keywords, &c.IsDeleted, &c.CategoryID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning channel: %w", err)
	}
	return c, nil
}

func scanChannels(rows *sql.Rows) ([]*Channel, error) {
	var channels []*Channel
	for rows.Next() {
		c := &Channel{}
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.Keywords, &c.IsDeleted, &c.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func scanChannelKeywords(rows *sql.Rows) ([]ChannelKeywords, error) {
	var out []ChannelKeywords
	for rows.Next() {
		var ck ChannelKeywords
		var kw sql.NullString
		if err := rows.Scan(&ck.ChannelID, &ck.CategoryID, &kw); err != nil {
			return nil, fmt.Errorf("scanning channel keywords row: %w", err)
		}
		ck.Keywords = kw.String
		out = append(out, ck)
	}
	return out, rows.Err()
}
