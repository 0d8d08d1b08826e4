package store

import (
	"context"
	"fmt"
	"time"
)

// AddChannelStatOnce appends a daily channel snapshot unless one already
// exists for that calendar day. Reports whether a row was inserted.
func (s *SQLiteStore) AddChannelStatOnce(ctx context.Context, channelID int64, day time.Time, subscribers, videos, views int64) (bool, error) {
	key := dayKey(day)

	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM channel_stat WHERE channel_id = ? AND timestamp = ?`,
		channelID, key).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("checking channel stat for %d: %w", channelID, err)
	}
	if existing > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO channel_stat (channel_id, timestamp, subscriber_count, video_count, view_count)
		 VALUES (?, ?, ?, ?, ?)`,
		channelID, key, subscribers, videos, views)
	if err != nil {
		return false, fmt.Errorf("inserting channel stat for %d: %w", channelID, err)
	}
	return true, nil
}

// AddVideoStatOnce appends a daily video snapshot unless one already exists
// for that calendar day. Reports whether a row was inserted.
func (s *SQLiteStore) AddVideoStatOnce(ctx context.Context, videoID int64, day time.Time, views, likes, comments int64) (bool, error) {
	key := dayKey(day)

	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM video_stat WHERE video_id = ? AND timestamp = ?`,
		videoID, key).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("checking video stat for %d: %w", videoID, err)
	}
	if existing > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO video_stat (video_id, timestamp, view_count, like_count, comment_count)
		 VALUES (?, ?, ?, ?, ?)`,
		videoID, key, views, likes, comments)
	if err != nil {
		return false, fmt.Errorf("inserting video stat for %d: %w", videoID, err)
	}
	return true, nil
}
