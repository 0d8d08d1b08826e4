package store

import (
	"context"
	"fmt"
	"strings"
)

// DeleteLongVideos removes videos whose length exceeds maxSeconds, except
// those belonging to a protected channel. Marathon streams skew watch-time
// aggregates; the allow list exempts channels known to publish long content.
func (s *SQLiteStore) DeleteLongVideos(ctx context.Context, maxSeconds int64, protectedChannels []string) (int64, error) {
	query := `
		DELETE FROM video
		WHERE id IN (
			SELECT video.id
			FROM video
			JOIN channel ON video.channel_id = channel.id
			WHERE video.length > ?`

	args := []any{maxSeconds}
	if len(protectedChannels) > 0 {
		placeholders := strings.Repeat("?,", len(protectedChannels))
		query += fmt.Sprintf(" AND channel.name NOT IN (%s)", placeholders[:len(placeholders)-1])
		for _, name := range protectedChannels {
			args = append(args, name)
		}
	}
	query += ")"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting long videos: %w", err)
	}
	return result.RowsAffected()
}

// DeleteEmptyChannels removes channels with no remaining videos. Runs before
// the orphan sweep because video and activity pruning depends on which
// channels survive.
func (s *SQLiteStore) DeleteEmptyChannels(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM channel WHERE id NOT IN (SELECT DISTINCT channel_id FROM video)`)
	if err != nil {
		return 0, fmt.Errorf("deleting empty channels: %w", err)
	}
	return result.RowsAffected()
}

// SweepOrphans removes rows whose referenced channel or video no longer
// exists. The foreign-key cascade keeps the schema consistent on its own;
// the sweep covers rows predating the cascade or written with foreign keys
// off. Returns total rows removed.
func (s *SQLiteStore) SweepOrphans(ctx context.Context) (int64, error) {
	sweeps := []string{
		`DELETE FROM activity WHERE channel_id NOT IN (SELECT id FROM channel)`,
		`DELETE FROM activity WHERE video_id NOT IN (SELECT id FROM video)`,
		`DELETE FROM video WHERE channel_id NOT IN (SELECT id FROM channel)`,
		`DELETE FROM video_stat WHERE video_id NOT IN (SELECT id FROM video)`,
		`DELETE FROM channel_stat WHERE channel_id NOT IN (SELECT id FROM channel)`,
	}

	var total int64
	for _, stmt := range sweeps {
		result, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return total, fmt.Errorf("sweeping orphans: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
