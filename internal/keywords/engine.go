package keywords

import (
	"context"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
)

// DefaultChannelTopKeywords is how many of a channel's most frequent video
// tokens are kept as the channel keyword string.
const DefaultChannelTopKeywords = 7

// Engine derives keyword strings for videos and channels.
type Engine struct {
	store store.Store
	topK  int
}

// NewEngine creates a keyword engine. topK <= 0 selects the default.
func NewEngine(s store.Store, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultChannelTopKeywords
	}
	return &Engine{store: s, topK: topK}
}

// UpdateVideoKeywords derives video.keywords from tags when present, else
// from title and description. Returns the number of videos updated.
func (e *Engine) UpdateVideoKeywords(ctx context.Context) (int, error) {
	videos, err := e.store.VideosWithText(ctx)
	if err != nil {
		return 0, err
	}

	bar := progressbar.Default(int64(len(videos)), "video keywords")
	derived := make(map[int64]string, len(videos))

	for _, v := range videos {
		bar.Add(1)

		var cleaned string
		if v.Tags != nil && *v.Tags != "" {
			// Tags are creator-curated; prefer them over free text.
			cleaned = Normalize(strings.ReplaceAll(*v.Tags, ",", " "))
		} else {
			description := ""
			if v.Description != nil {
				description = *v.Description
			}
			cleaned = Normalize(v.Title + " " + description)
		}
		derived[v.ID] = cleaned
	}

	if err := e.store.UpdateVideoKeywordsBatch(ctx, derived); err != nil {
		return 0, err
	}

	logging.Logger.Info().Int("videos", len(derived)).Msg("video keywords updated")
	return len(derived), nil
}

// UpdateChannelKeywords aggregates every channel's video keywords and keeps
// the most frequent tokens. A channel with no videos yields no keyword
// string; that is logged, not an error.
func (e *Engine) UpdateChannelKeywords(ctx context.Context) (int, error) {
	channels, err := e.store.ChannelsWithVideoKeywords(ctx)
	if err != nil {
		return 0, err
	}

	bar := progressbar.Default(int64(len(channels)), "channel keywords")
	updated := 0

	for _, ch := range channels {
		bar.Add(1)

		if strings.TrimSpace(ch.Keywords) == "" {
			logging.Logger.Info().Int64("channel", ch.ChannelID).Msg("channel has no videos")
			continue
		}

		top := TopKeywords(ch.Keywords, e.topK)
		if err := e.store.UpdateChannelKeywords(ctx, ch.ChannelID, top); err != nil {
			return updated, err
		}
		updated++
	}

	logging.Logger.Info().Int("channels", updated).Msg("channel keywords updated")
	return updated, nil
}
