package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryWatchRow is one line of the most-watched-categories report.
type CategoryWatchRow struct {
	CategoryID   int64
	CategoryName string
	WatchSeconds int64
	VideoCount   int64
	TopChannels  string
}

// ChannelWatchRow is one line of the most-watched-channels report.
type ChannelWatchRow struct {
	ChannelName  string
	CategoryName string
	WatchSeconds int64
	VideoCount   int64
	AvgLength    int64
}

// MostWatchedCategories aggregates watch time per category over the activity
// log, with the most-watched member channels listed per category.
func (s *SQLiteStore) MostWatchedCategories(ctx context.Context, limit int) ([]CategoryWatchRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id,
			COALESCE(c.name, 'cluster ' || COALESCE(c.cluster_number, c.id)),
			SUM(v.length),
			COUNT(v.id),
			(
				SELECT GROUP_CONCAT(top.name, ', ')
				FROM (
					SELECT ch2.name, COUNT(a2.video_id) AS watched
					FROM channel ch2
					JOIN video v2 ON ch2.id = v2.channel_id
					JOIN activity a2 ON a2.video_id = v2.id
					WHERE a2.action = 'Watched' AND ch2.category_id = c.id
					GROUP BY ch2.id
					ORDER BY watched DESC, ch2.name
					LIMIT 5
				) AS top
			)
		FROM category c
		JOIN channel ch ON c.id = ch.category_id
		JOIN video v ON ch.id = v.channel_id
		JOIN activity a ON a.video_id = v.id
		WHERE a.action = 'Watched' AND v.length IS NOT NULL
		GROUP BY c.id
		ORDER BY SUM(v.length) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying category watch report: %w", err)
	}
	defer rows.Close()

	var out []CategoryWatchRow
	for rows.Next() {
		var r CategoryWatchRow
		var top sql.NullString
		if err := rows.Scan(&r.CategoryID, &r.CategoryName, &r.WatchSeconds, &r.VideoCount, &top); err != nil {
			return nil, fmt.Errorf("scanning category watch row: %w", err)
		}
		r.TopChannels = top.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// MostWatchedChannels aggregates watch time per channel over the activity log.
func (s *SQLiteStore) MostWatchedChannels(ctx context.Context, limit int) ([]ChannelWatchRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			channel.name,
			COALESCE(category.name, ''),
			SUM(video.length),
			COUNT(video.id),
			CAST(AVG(video.length) AS INTEGER)
		FROM channel
		INNER JOIN video ON video.channel_id = channel.id
		INNER JOIN activity ON activity.video_id = video.id AND activity.action = 'Watched'
		LEFT JOIN category ON category.id = channel.category_id
		WHERE video.length IS NOT NULL
		GROUP BY channel.id
		ORDER BY COUNT(video.id) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying channel watch report: %w", err)
	}
	defer rows.Close()

	var out []ChannelWatchRow
	for rows.Next() {
		var r ChannelWatchRow
		if err := rows.Scan(&r.ChannelName, &r.CategoryName, &r.WatchSeconds, &r.VideoCount, &r.AvgLength); err != nil {
			return nil, fmt.Errorf("scanning channel watch row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
