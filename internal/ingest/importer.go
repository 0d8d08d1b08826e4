// Package ingest loads the tabular watch-history intermediate into the store.
//
// Ingestion is idempotent: a history entry is skipped when an activity with
// the same (action, timestamp) already exists, channels are deduplicated by
// URL, and videos by (title, URL). Re-importing the same file is a no-op.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
)

// Options controls one import run.
type Options struct {
	// ExcludedChannels are never imported (screensaver loops and similar
	// channels that would skew watch statistics).
	ExcludedChannels []string
}

// Result holds counters from one import run.
type Result struct {
	Activities int
	Channels   int
	Videos     int
	Duplicates int
	Excluded   int
}

// Add accumulates another result into this one.
func (r *Result) Add(other *Result) {
	r.Activities += other.Activities
	r.Channels += other.Channels
	r.Videos += other.Videos
	r.Duplicates += other.Duplicates
	r.Excluded += other.Excluded
}

// Format renders a result for operator output.
func (r *Result) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Actions inserted:         %d\n", r.Activities)
	fmt.Fprintf(&sb, "Unique channels inserted: %d\n", r.Channels)
	fmt.Fprintf(&sb, "Unique videos inserted:   %d\n", r.Videos)
	if r.Duplicates > 0 {
		fmt.Fprintf(&sb, "Already ingested:         %d\n", r.Duplicates)
	}
	if r.Excluded > 0 {
		fmt.Fprintf(&sb, "Excluded channels:        %d\n", r.Excluded)
	}
	return sb.String()
}

// Importer loads CSV rows into the store.
type Importer struct {
	store store.Store
}

// NewImporter creates an Importer backed by the given store.
func NewImporter(s store.Store) *Importer {
	return &Importer{store: s}
}

// ImportFile ingests one CSV intermediate file.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	result, err := im.Import(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}

	logging.Logger.Info().
		Int("activities", result.Activities).
		Int("channels", result.Channels).
		Int("videos", result.Videos).
		Int("duplicates", result.Duplicates).
		Int("excluded", result.Excluded).
		Msg("import finished")
	return result, nil
}

// Import ingests CSV rows from r. The first row must be the header.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	// The converter writes a UTF-8 BOM for spreadsheet tools.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Timestamp", "Action", "Title", "URL", "Channel", "Channel URL"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV missing column %q", required)
		}
	}

	excluded := make(map[string]bool, len(opts.ExcludedChannels))
	for _, name := range opts.ExcludedChannels {
		excluded[name] = true
	}

	result := &Result{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		entry := rowEntry{
			timestamp:  row[col["Timestamp"]],
			action:     row[col["Action"]],
			title:      row[col["Title"]],
			url:        row[col["URL"]],
			channel:    row[col["Channel"]],
			channelURL: row[col["Channel URL"]],
		}

		if excluded[entry.channel] {
			result.Excluded++
			continue
		}

		if err := im.ingestRow(ctx, entry, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type rowEntry struct {
	timestamp  string
	action     string
	title      string
	url        string
	channel    string
	channelURL string
}

func (im *Importer) ingestRow(ctx context.Context, e rowEntry, result *Result) error {
	// The (action, timestamp) pair marks a history entry already ingested
	// on a previous run.
	exists, err := im.store.ActivityExists(ctx, e.action, e.timestamp)
	if err != nil {
		return err
	}
	if exists {
		result.Duplicates++
		return nil
	}

	channel, err := im.store.ChannelByURL(ctx, e.channelURL)
	if err != nil {
		return err
	}
	var channelID int64
	if channel == nil {
		channelID, err = im.store.AddChannel(ctx, e.channel, e.channelURL)
		if err != nil {
			return err
		}
		result.Channels++
	} else {
		channelID = channel.ID
	}

	video, err := im.store.VideoByTitleAndURL(ctx, e.title, e.url)
	if err != nil {
		return err
	}
	var videoID int64
	if video == nil {
		videoID, err = im.store.AddVideo(ctx, channelID, e.title, e.url)
		if err != nil {
			return err
		}
		result.Videos++
	} else {
		videoID = video.ID
	}

	if _, err := im.store.AddActivity(ctx, e.action, e.timestamp, videoID, channelID); err != nil {
		return err
	}
	result.Activities++
	return nil
}
