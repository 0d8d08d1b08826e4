// Package report renders watch-time summaries from the activity log.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hpaavola/tubescope/internal/store"
)

// DefaultLimit is how many rows each report shows.
const DefaultLimit = 20

// Runner renders reports against a store. The aggregation queries live on
// the SQLite store directly, so Runner requires the concrete type.
type Runner struct {
	store *store.SQLiteStore
	limit int
}

// NewRunner builds a report runner. The store must be the SQLite
// implementation; limit <= 0 selects the default.
func NewRunner(s store.Store, limit int) (*Runner, error) {
	sqlStore, ok := s.(*store.SQLiteStore)
	if !ok {
		return nil, fmt.Errorf("reports require a SQLite store, got %T", s)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Runner{store: sqlStore, limit: limit}, nil
}

// Categories writes the most-watched-categories table.
func (r *Runner) Categories(ctx context.Context, w io.Writer) error {
	rows, err := r.store.MostWatchedCategories(ctx, r.limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tWATCH TIME\tVIDEOS\tTOP CHANNELS")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			row.CategoryName, formatWatchTime(row.WatchSeconds), row.VideoCount, row.TopChannels)
	}
	return tw.Flush()
}

// Channels writes the most-watched-channels table.
func (r *Runner) Channels(ctx context.Context, w io.Writer) error {
	rows, err := r.store.MostWatchedChannels(ctx, r.limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tCATEGORY\tWATCH TIME\tVIDEOS\tAVG LENGTH")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			row.ChannelName, row.CategoryName, formatWatchTime(row.WatchSeconds),
			row.VideoCount, formatWatchTime(row.AvgLength))
	}
	return tw.Flush()
}

// formatWatchTime renders seconds as a dd:hh:mm string. Sub-minute totals
// round down to 00:00:00.
func formatWatchTime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	days := int64(d.Hours()) / 24
	hours := int64(d.Hours()) % 24
	minutes := int64(d.Minutes()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", days, hours, minutes)
}
