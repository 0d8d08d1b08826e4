// Package sync enriches local channels and videos from the platform
// metadata API.
//
// The API enforces a consumable daily quota, so each invocation processes a
// bounded batch and the engine is designed to be re-run across sessions
// until no unenriched rows remain. Work is selected by state (description or
// length still NULL), never by offset, which makes every run resumable.
package sync

import (
	"context"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
	"github.com/hpaavola/tubescope/internal/youtube"
)

// DefaultBatchSize bounds API calls per invocation so a single run cannot
// burn the whole daily quota.
const DefaultBatchSize = 10

// Result holds counters from one sync invocation so operators can judge
// whether re-invocation is needed.
type Result struct {
	Enriched  int
	Deleted   int
	Failed    int
	Remaining int64
}

// Engine drives the enrichment batches.
type Engine struct {
	store     store.Store
	client    youtube.MetadataClient
	batchSize int
	now       func() time.Time
}

// NewEngine creates a sync engine. batchSize <= 0 selects the default.
func NewEngine(s store.Store, client youtube.MetadataClient, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{store: s, client: client, batchSize: batchSize, now: time.Now}
}

// SyncChannels enriches one batch of channels missing metadata. A channel
// the API no longer resolves is hard-deleted; its videos, activities and
// stats go with it. A single channel's failure is logged and skipped.
func (e *Engine) SyncChannels(ctx context.Context) (*Result, error) {
	channels, err := e.store.ChannelsMissingDetails(ctx, e.batchSize)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	bar := progressbar.Default(int64(len(channels)), "channels")

	for _, ch := range channels {
		bar.Add(1)

		details, err := e.client.ChannelByID(ctx, youtube.ChannelIDFromURL(ch.URL))
		if err != nil {
			result.Failed++
			logging.Logger.Warn().Err(err).Str("url", ch.URL).Msg("channel could not be retrieved")
			continue
		}

		if details == nil {
			if err := e.store.DeleteChannel(ctx, ch.ID); err != nil {
				return result, err
			}
			result.Deleted++
			continue
		}

		if err := e.store.UpdateChannelDetails(ctx, ch.ID, details.Title, details.Description); err != nil {
			return result, err
		}

		// Store today's counts too, at most once per calendar day.
		if _, err := e.store.AddChannelStatOnce(ctx, ch.ID, e.now(),
			details.SubscriberCount, details.VideoCount, details.ViewCount); err != nil {
			return result, err
		}
		result.Enriched++
	}

	result.Remaining, err = e.store.CountChannelsMissingDetails(ctx)
	if err != nil {
		return result, err
	}

	e.logResult("channels", result)
	return result, nil
}

// SyncVideos enriches one batch of videos missing metadata. Duration tokens
// that fail to decode fall back to a fixed approximate length instead of
// aborting the batch.
func (e *Engine) SyncVideos(ctx context.Context) (*Result, error) {
	videos, err := e.store.VideosMissingLength(ctx, e.batchSize)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	bar := progressbar.Default(int64(len(videos)), "videos")

	for _, v := range videos {
		bar.Add(1)

		details, err := e.client.VideoByID(ctx, youtube.VideoIDFromURL(v.URL))
		if err != nil {
			result.Failed++
			logging.Logger.Warn().Err(err).Str("url", v.URL).Msg("video could not be retrieved")
			continue
		}

		if details == nil {
			if err := e.store.DeleteVideo(ctx, v.ID); err != nil {
				return result, err
			}
			result.Deleted++
			continue
		}

		length := youtube.ParseDurationSeconds(details.Duration)

		var tags *string
		if len(details.Tags) > 0 {
			joined := strings.Join(details.Tags, ",")
			tags = &joined
		}

		if err := e.store.UpdateVideoDetails(ctx, v.ID, length, details.Description, details.PublishedAt, tags); err != nil {
			return result, err
		}

		if _, err := e.store.AddVideoStatOnce(ctx, v.ID, e.now(),
			details.ViewCount, details.LikeCount, details.CommentCount); err != nil {
			return result, err
		}
		result.Enriched++
	}

	result.Remaining, err = e.store.CountVideosMissingLength(ctx)
	if err != nil {
		return result, err
	}

	e.logResult("videos", result)
	return result, nil
}

func (e *Engine) logResult(kind string, r *Result) {
	evt := logging.Logger.Info().
		Int("enriched", r.Enriched).
		Int("deleted", r.Deleted).
		Int("failed", r.Failed).
		Int64("remaining", r.Remaining)
	evt.Msgf("%s synced from the platform API", kind)

	if r.Remaining > 0 {
		logging.Logger.Info().Msgf("%s not yet updated: %d (re-run sync)", kind, r.Remaining)
	}
}
