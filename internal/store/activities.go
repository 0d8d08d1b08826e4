package store

import (
	"context"
	"fmt"
)

// ActivityExists reports whether a history entry with the same action and
// timestamp was already ingested.
func (s *SQLiteStore) ActivityExists(ctx context.Context, action, timestamp string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM activity WHERE action = ? AND timestamp = ?`,
		action, timestamp).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking activity: %w", err)
	}
	return n > 0, nil
}

// AddActivity appends one watch-log row.
func (s *SQLiteStore) AddActivity(ctx context.Context, action, timestamp string, videoID, channelID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (action, timestamp, video_id, channel_id)
		 VALUES (?, ?, ?, ?)`,
		action, timestamp, videoID, channelID)
	if err != nil {
		return 0, fmt.Errorf("inserting activity: %w", err)
	}
	return result.LastInsertId()
}
