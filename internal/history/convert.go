// Package history converts the raw watch-history JSON export into the
// semicolon-separated tabular intermediate the ingestion stage consumes.
//
// Entries without a channel reference and entries whose title matches a
// known "unavailable" sentinel are dropped here, before anything touches
// the store.
package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hpaavola/tubescope/internal/logging"
)

// Header columns of the tabular intermediate, in order.
var Header = []string{"Timestamp", "Action", "Title", "URL", "Channel", "Channel URL"}

// utf8BOM preserves non-ASCII glyphs (channel names, emoji) for spreadsheet
// tools that sniff the encoding.
const utf8BOM = "\xef\xbb\xbf"

// unavailableTitles are export sentinels for entries that no longer resolve
// to a watchable video. They never reach the store.
var unavailableTitles = map[string]bool{
	"Watched a video that has been removed": true,
	"Visited YouTube Music":                 true,
}

// rawEntry mirrors one element of the watch-history JSON export.
type rawEntry struct {
	Time      string `json:"time"`
	Title     string `json:"title"`
	TitleURL  string `json:"titleUrl"`
	Subtitles []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"subtitles"`
}

// Entry is one retained history row.
type Entry struct {
	Timestamp  string
	Action     string
	Title      string
	URL        string
	Channel    string
	ChannelURL string
}

// Result reports conversion counters.
type Result struct {
	Total       int
	Written     int
	Unavailable int
}

// timestampLayouts are tried in order when normalizing export timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// ConvertFile reads the raw JSON export and writes the CSV intermediate.
func ConvertFile(ctx context.Context, jsonPath, csvPath string) (*Result, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading history export: %w", err)
	}

	entries, result, err := Parse(data)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", csvPath, err)
	}
	defer f.Close()

	if err := Write(f, entries); err != nil {
		return nil, err
	}

	logging.Logger.Info().
		Int("written", result.Written).
		Int("unavailable", result.Unavailable).
		Str("csv", csvPath).
		Msg("history export converted")
	return result, nil
}

// Parse extracts retained entries from the raw JSON export.
func Parse(data []byte) ([]Entry, *Result, error) {
	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing history export: %w", err)
	}

	result := &Result{Total: len(raw)}
	entries := make([]Entry, 0, len(raw))

	for _, item := range raw {
		if unavailableTitles[item.Title] {
			result.Unavailable++
			continue
		}
		// No subtitles means no channel to attribute the watch to.
		if len(item.Subtitles) == 0 {
			result.Unavailable++
			continue
		}

		ts, err := normalizeTimestamp(item.Time)
		if err != nil {
			result.Unavailable++
			continue
		}

		entries = append(entries, Entry{
			Timestamp:  ts,
			Action:     "Watched",
			Title:      strings.TrimPrefix(item.Title, "Watched "),
			URL:        item.TitleURL,
			Channel:    item.Subtitles[0].Name,
			ChannelURL: item.Subtitles[0].URL,
		})
	}

	result.Written = len(entries)
	return entries, result, nil
}

// Write emits the BOM, the header and one semicolon-separated row per entry.
func Write(w io.Writer, entries []Entry) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, e := range entries {
		row := []string{e.Timestamp, e.Action, e.Title, e.URL, e.Channel, e.ChannelURL}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func normalizeTimestamp(raw string) (string, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04:05"), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", raw)
}
