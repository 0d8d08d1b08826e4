// Package store provides the SQLite storage layer for tubescope.
//
// All pipeline data lives in a single SQLite database file, including:
// - Channels and videos discovered from the watch-history export
// - Append-only activity log and daily statistics snapshots
// - Categories produced by the categorization tiers
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.tubescope/tubescope.db"

// DefaultBatchSize is the default batch size for bulk keyword updates.
const DefaultBatchSize = 1000

// Category groups channels. It is produced either by a fixed rule, by
// unsupervised clustering (ClusterNumber set), or by a fallback strategy.
type Category struct {
	ID            int64
	ClusterNumber *int64
	Name          *string
	Keywords      *string
	CachedKeyword *string
}

// Channel represents a YouTube channel referenced by the history export.
// URL is the external identity key used for ingestion dedup.
type Channel struct {
	ID          int64
	Name        string
	URL         string
	Description *string
	Keywords    *string
	IsDeleted   bool
	CategoryID  *int64
}

// Video represents a single video. Length stays NULL until the sync engine
// has enriched the row from the platform API.
type Video struct {
	ID          int64
	ChannelID   int64
	Title       string
	URL         string
	Length      *int64
	Description *string
	Tags        *string
	Keywords    *string
	PublishedAt *time.Time
	IsDeleted   bool
}

// Activity is one row of the append-only watch log.
// (Action, Timestamp) is the ingestion dedup key.
type Activity struct {
	ID        int64
	Action    string
	Timestamp string
	VideoID   int64
	ChannelID int64
}

// ChannelKeywords pairs a channel with a keyword text used as classifier
// input. Keywords may be the channel's own keyword string or the
// concatenation of its videos' keyword strings, depending on the query.
type ChannelKeywords struct {
	ChannelID  int64
	CategoryID *int64
	Keywords   string
}

// StoreStats holds observability statistics about the store.
type StoreStats struct {
	ChannelCount     int64
	VideoCount       int64
	ActivityCount    int64
	CategoryCount    int64
	VideoStatCount   int64
	ChannelStatCount int64
	DBSizeBytes      int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath    string
	BatchSize int
}

// Store defines the core storage interface.
type Store interface {
	// Channels
	ChannelByURL(ctx context.Context, url string) (*Channel, error)
	AddChannel(ctx context.Context, name, url string) (int64, error)
	ChannelsMissingDetails(ctx context.Context, limit int) ([]*Channel, error)
	CountChannelsMissingDetails(ctx context.Context) (int64, error)
	UpdateChannelDetails(ctx context.Context, id int64, name, description string) error
	DeleteChannel(ctx context.Context, id int64) error
	UpdateChannelKeywords(ctx context.Context, id int64, keywords string) error
	ChannelsWithVideoKeywords(ctx context.Context) ([]ChannelKeywords, error)
	UncategorizedChannelsWithKeywords(ctx context.Context) ([]ChannelKeywords, error)
	AssignCategoryByExactName(ctx context.Context, categoryID int64, channelName string) (int64, error)
	AssignCategoryByToken(ctx context.Context, categoryID int64, token string) (int64, error)
	AssignCategoryIfUnset(ctx context.Context, channelID, categoryID int64) (bool, error)
	LabeledChannelVideoKeywords(ctx context.Context) ([]ChannelKeywords, error)
	UnlabeledChannelVideoKeywords(ctx context.Context) ([]ChannelKeywords, error)

	// Videos
	VideoByTitleAndURL(ctx context.Context, title, url string) (*Video, error)
	AddVideo(ctx context.Context, channelID int64, title, url string) (int64, error)
	VideosMissingLength(ctx context.Context, limit int) ([]*Video, error)
	CountVideosMissingLength(ctx context.Context) (int64, error)
	UpdateVideoDetails(ctx context.Context, id, length int64, description string, publishedAt time.Time, tags *string) error
	DeleteVideo(ctx context.Context, id int64) error
	VideosWithText(ctx context.Context) ([]*Video, error)
	UpdateVideoKeywordsBatch(ctx context.Context, keywordsByID map[int64]string) error

	// Categories
	AddCategory(ctx context.Context, name *string, clusterNumber *int64) (int64, error)
	CategoryByName(ctx context.Context, name string) (*Category, error)
	CategoryByClusterNumber(ctx context.Context, clusterNumber int64) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	UpdateCategoryKeywords(ctx context.Context, id int64, keywords string) error
	UpdateCategoryName(ctx context.Context, id int64, name string) error
	ChannelKeywordsForCluster(ctx context.Context, clusterNumber int64) ([]string, error)

	// Statistics snapshots (at most one row per entity per calendar day)
	AddChannelStatOnce(ctx context.Context, channelID int64, day time.Time, subscribers, videos, views int64) (bool, error)
	AddVideoStatOnce(ctx context.Context, videoID int64, day time.Time, views, likes, comments int64) (bool, error)

	// Activities
	ActivityExists(ctx context.Context, action, timestamp string) (bool, error)
	AddActivity(ctx context.Context, action, timestamp string, videoID, channelID int64) (int64, error)

	// Maintenance
	DeleteLongVideos(ctx context.Context, maxSeconds int64, protectedChannels []string) (int64, error)
	DeleteEmptyChannels(ctx context.Context) (int64, error)
	SweepOrphans(ctx context.Context) (int64, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	batchSize int
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Enable WAL mode and foreign keys. Cascade deletes depend on
	// foreign_keys being ON for every connection.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	// modernc.org/sqlite opens a new connection per query by default; pin a
	// single connection so the in-memory database and pragmas stay coherent.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:        db,
		dbPath:    cfg.DBPath,
		batchSize: cfg.BatchSize,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only — never auto-vacuum.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats returns row counts and database size.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	st := &StoreStats{}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM channel", &st.ChannelCount},
		{"SELECT COUNT(*) FROM video", &st.VideoCount},
		{"SELECT COUNT(*) FROM activity", &st.ActivityCount},
		{"SELECT COUNT(*) FROM category", &st.CategoryCount},
		{"SELECT COUNT(*) FROM video_stat", &st.VideoStatCount},
		{"SELECT COUNT(*) FROM channel_stat", &st.ChannelStatCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting rows: %w", err)
		}
	}

	if s.dbPath != ":memory:" {
		if fi, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = fi.Size()
		}
	}
	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// dayKey formats a timestamp as a calendar-day key for stat snapshots.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
