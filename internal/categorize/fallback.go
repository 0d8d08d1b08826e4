package categorize

import (
	"context"
	"fmt"

	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
)

// Fallback assigns the channels the earlier tiers left uncategorized. It
// receives labeled channels as training signal and proposes a category per
// unlabeled channel.
type Fallback interface {
	Name() string
	Assign(labeled, unlabeled []store.ChannelKeywords, categories []*store.Category) (map[int64]int64, error)
}

// FallbackResult holds counters from the tier-3 pass.
type FallbackResult struct {
	Strategy  string
	Assigned  int
	Remaining int
}

// AssignRemaining runs the configured fallback over every channel the fixed
// rules and clustering skipped.
func (e *Engine) AssignRemaining(ctx context.Context) (*FallbackResult, error) {
	var fb Fallback
	switch e.opts.Fallback {
	case "forest":
		fb = &ForestFallback{}
	case "similarity":
		// Similarity matching compares channels against category keyword
		// strings, which fixed-taxonomy categories lack until generated.
		if err := e.EnsureCategoryKeywords(ctx); err != nil {
			return nil, err
		}
		fb = &SimilarityFallback{}
	default:
		return nil, fmt.Errorf("unknown fallback strategy: %q", e.opts.Fallback)
	}

	result := &FallbackResult{Strategy: fb.Name()}

	unlabeled, err := e.store.UnlabeledChannelVideoKeywords(ctx)
	if err != nil {
		return nil, err
	}
	if len(unlabeled) == 0 {
		return result, nil
	}

	labeled, err := e.store.LabeledChannelVideoKeywords(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := fb.Assign(labeled, unlabeled, categories)
	if err != nil {
		return nil, fmt.Errorf("%s fallback: %w", fb.Name(), err)
	}

	for channelID, categoryID := range assignments {
		assigned, err := e.store.AssignCategoryIfUnset(ctx, channelID, categoryID)
		if err != nil {
			return result, err
		}
		if assigned {
			result.Assigned++
		}
	}
	result.Remaining = len(unlabeled) - result.Assigned

	logging.Logger.Info().
		Str("strategy", result.Strategy).
		Int("assigned", result.Assigned).
		Int("remaining", result.Remaining).
		Msg("fallback assignment finished")
	return result, nil
}
