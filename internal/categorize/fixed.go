package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpaavola/tubescope/internal/logging"
)

// FixedResult holds counters from the tier-1 pass.
type FixedResult struct {
	Categories int
	ByName     int64
	ByKeyword  int64
}

// ApplyFixed runs the tier-1 rules: exact channel names first, then keyword
// substrings, in taxonomy order. A channel assigned by an earlier rule is
// never reassigned.
func (e *Engine) ApplyFixed(ctx context.Context) (*FixedResult, error) {
	result := &FixedResult{}

	for _, rule := range e.taxonomy.Names {
		categoryID, created, err := e.ensureCategory(ctx, rule.Category)
		if err != nil {
			return result, err
		}
		if created {
			result.Categories++
		}

		for _, channelName := range rule.Channels {
			if strings.TrimSpace(channelName) == "" {
				continue
			}
			n, err := e.store.AssignCategoryByExactName(ctx, categoryID, channelName)
			if err != nil {
				return result, err
			}
			result.ByName += n
		}
	}

	for _, rule := range e.taxonomy.Keywords {
		categoryID, created, err := e.ensureCategory(ctx, rule.Category)
		if err != nil {
			return result, err
		}
		if created {
			result.Categories++
		}

		// Tokens are matched verbatim: entries like " AI " rely on their
		// padding to avoid matching inside longer words.
		for _, token := range strings.Split(rule.Tokens, ",") {
			if token == "" {
				continue
			}
			n, err := e.store.AssignCategoryByToken(ctx, categoryID, token)
			if err != nil {
				return result, err
			}
			result.ByKeyword += n
		}
	}

	logging.Logger.Info().
		Int("categories", result.Categories).
		Int64("by_name", result.ByName).
		Int64("by_keyword", result.ByKeyword).
		Msg("fixed categories applied")
	return result, nil
}

// ensureCategory returns the id of the named category, creating it on first
// use. Reports whether a row was created.
func (e *Engine) ensureCategory(ctx context.Context, name string) (int64, bool, error) {
	existing, err := e.store.CategoryByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	id, err := e.store.AddCategory(ctx, &name, nil)
	if err != nil {
		return 0, false, fmt.Errorf("creating category %q: %w", name, err)
	}
	return id, true, nil
}
