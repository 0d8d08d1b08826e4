package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// VideoByTitleAndURL looks a video up by the ingestion dedup key.
// Returns nil, nil when no video matches.
func (s *SQLiteStore) VideoByTitleAndURL(ctx context.Context, title, url string) (*Video, error) {
	return s.scanVideo(s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, title, url, length, description, tags, keywords, published_at, is_deleted
		 FROM video WHERE title = ? AND url = ?`, title, url))
}

// AddVideo inserts a new video discovered during ingestion.
func (s *SQLiteStore) AddVideo(ctx context.Context, channelID int64, title, url string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO video (channel_id, title, url) VALUES (?, ?, ?)`,
		channelID, title, url)
	if err != nil {
		return 0, fmt.Errorf("inserting video: %w", err)
	}
	return result.LastInsertId()
}

// VideosMissingLength returns up to limit videos not yet enriched. A NULL
// length marks a video as pending.
func (s *SQLiteStore) VideosMissingLength(ctx context.Context, limit int) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, title, url, length, description, tags, keywords, published_at, is_deleted
		 FROM video WHERE length IS NULL AND is_deleted = 0
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting videos missing length: %w", err)
	}
	defer rows.Close()
	return scanVideos(rows)
}

// CountVideosMissingLength reports how many videos still need enrichment.
func (s *SQLiteStore) CountVideosMissingLength(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM video WHERE length IS NULL AND is_deleted = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unenriched videos: %w", err)
	}
	return n, nil
}

// UpdateVideoDetails writes API-sourced metadata onto an existing video.
// Tags may be nil when the API response carried none.
func (s *SQLiteStore) UpdateVideoDetails(ctx context.Context, id, length int64, description string, publishedAt time.Time, tags *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE video SET length = ?, description = ?, published_at = ?, tags = ? WHERE id = ?`,
		length, description, publishedAt.UTC().Format(time.RFC3339), tags, id)
	if err != nil {
		return fmt.Errorf("updating video %d: %w", id, err)
	}
	return nil
}

// DeleteVideo hard-deletes a video. Stats and activities referencing it are
// removed by the foreign-key cascade.
func (s *SQLiteStore) DeleteVideo(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM video WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting video %d: %w", id, err)
	}
	return nil
}

// VideosWithText returns every video carrying any raw text usable for
// keyword extraction.
func (s *SQLiteStore) VideosWithText(ctx context.Context) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, title, url, length, description, tags, keywords, published_at, is_deleted
		 FROM video WHERE title IS NOT NULL OR description IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("selecting videos with text: %w", err)
	}
	defer rows.Close()
	return scanVideos(rows)
}

// UpdateVideoKeywordsBatch writes derived keyword strings for many videos in
// chunked transactions.
func (s *SQLiteStore) UpdateVideoKeywordsBatch(ctx context.Context, keywordsByID map[int64]string) error {
	ids := make([]int64, 0, len(keywordsByID))
	for id := range keywordsByID {
		ids = append(ids, id)
	}

	for start := 0; start < len(ids); start += s.batchSize {
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning keyword batch: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `UPDATE video SET keywords = ? WHERE id = ?`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("preparing keyword update: %w", err)
		}

		for _, id := range ids[start:end] {
			if _, err := stmt.ExecContext(ctx, keywordsByID[id], id); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("updating video %d keywords: %w", id, err)
			}
		}
		stmt.Close()

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing keyword batch: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) scanVideo(row *sql.Row) (*Video, error) {
	v := &Video{}
	var publishedAt sql.NullString
	err := row.Scan(&v.ID, &v.ChannelID, &v.Title, &v.URL, &v.Length,
		&v.Description, &v.Tags, &v.Keywords, &publishedAt, &v.IsDeleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning video: %w", err)
	}
	v.PublishedAt = parsePublishedAt(publishedAt)
	return v, nil
}

func scanVideos(rows *sql.Rows) ([]*Video, error) {
	var videos []*Video
	for rows.Next() {
		v := &Video{}
		var publishedAt sql.NullString
		if err := rows.Scan(&v.ID, &v.ChannelID, &v.Title, &v.URL, &v.Length,
			&v.Description, &v.Tags, &v.Keywords, &publishedAt, &v.IsDeleted); err != nil {
			return nil, fmt.Errorf("scanning video row: %w", err)
		}
		v.PublishedAt = parsePublishedAt(publishedAt)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func parsePublishedAt(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return nil
	}
	return &t
}
