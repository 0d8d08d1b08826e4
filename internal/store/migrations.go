package store

import (
	"fmt"
)

// migrate creates all tables if they don't exist and seeds metadata.
func (s *SQLiteStore) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}

	if !bootstrapDone {
		if err := s.runBootstrapDDL(); err != nil {
			return err
		}
	}

	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if !bootstrapDone {
		if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
			return fmt.Errorf("marking bootstrap complete: %w", err)
		}
	}

	return nil
}

// runBootstrapDDL creates the full schema inside one transaction.
//
// Deletion order is parent-first: deleting a channel cascades to its videos,
// activities and stat snapshots; deleting a video cascades to its stats and
// activities. A category deletion only detaches channels.
func (s *SQLiteStore) runBootstrapDDL() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS category (
			id INTEGER PRIMARY KEY,
			cluster_number INTEGER,
			name TEXT,
			keywords TEXT,
			cached_keywords TEXT
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_category_cluster
			ON category(cluster_number) WHERE cluster_number IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS channel (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			description TEXT,
			keywords TEXT,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			category_id INTEGER,
			FOREIGN KEY (category_id) REFERENCES category(id) ON DELETE SET NULL
		)`,

		`CREATE TABLE IF NOT EXISTS video (
			id INTEGER PRIMARY KEY,
			channel_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			length INTEGER,
			description TEXT,
			tags TEXT,
			keywords TEXT,
			published_at TEXT,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (channel_id) REFERENCES channel(id) ON DELETE CASCADE
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_video_title_url
			ON video(title, url)`,

		`CREATE INDEX IF NOT EXISTS idx_video_channel ON video(channel_id)`,

		`CREATE TABLE IF NOT EXISTS video_stat (
			id INTEGER PRIMARY KEY,
			video_id INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			view_count INTEGER NOT NULL DEFAULT 0,
			like_count INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (video_id) REFERENCES video(id) ON DELETE CASCADE
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_video_stat_day
			ON video_stat(video_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS channel_stat (
			id INTEGER PRIMARY KEY,
			channel_id INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			subscriber_count INTEGER NOT NULL DEFAULT 0,
			video_count INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (channel_id) REFERENCES channel(id) ON DELETE CASCADE
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_channel_stat_day
			ON channel_stat(channel_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY,
			action TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			video_id INTEGER NOT NULL,
			channel_id INTEGER NOT NULL,
			FOREIGN KEY (video_id) REFERENCES video(id) ON DELETE CASCADE,
			FOREIGN KEY (channel_id) REFERENCES channel(id) ON DELETE CASCADE
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_action_ts
			ON activity(action, timestamp)`,

		`CREATE INDEX IF NOT EXISTS idx_activity_video ON activity(video_id)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range ddl {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bootstrap: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedMeta() error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', '1')
		 ON CONFLICT(key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("seeding schema_version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) isMetaFlagEnabled(key string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='meta'`,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	var value string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return false, nil
	}
	return value == "1", nil
}

func (s *SQLiteStore) setMetaFlag(key string) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, '1')
		 ON CONFLICT(key) DO UPDATE SET value = '1'`, key)
	return err
}
