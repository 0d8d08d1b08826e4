// Package categorize assigns every channel to a category through three
// tiers: a fixed taxonomy of name and keyword rules, k-means clustering over
// TF-IDF keyword vectors, and a trained fallback for whatever remains.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpaavola/tubescope/internal/llm"
	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
)

// Options tunes the categorization run.
type Options struct {
	// MaxClusters caps the k considered when picking the cluster count.
	MaxClusters int
	// CategoryTopKeywords is how many tokens a cluster category keeps.
	CategoryTopKeywords int
	// Fallback selects the tier-3 strategy: "forest" or "similarity".
	Fallback string
	// KeywordsPerCategory is how many keywords the summarizer generates
	// for similarity matching.
	KeywordsPerCategory int
}

// DefaultOptions mirrors the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		MaxClusters:         10,
		CategoryTopKeywords: 20,
		Fallback:            "forest",
		KeywordsPerCategory: 20,
	}
}

// Engine runs the tiered categorization pipeline against a store.
type Engine struct {
	store      store.Store
	taxonomy   Taxonomy
	summarizer llm.Provider // nil disables naming and keyword generation
	opts       Options
}

// NewEngine builds an engine. summarizer may be nil; cluster categories then
// keep their numeric identity and the similarity fallback degrades to the
// synthesized keyword pool.
func NewEngine(st store.Store, taxonomy Taxonomy, summarizer llm.Provider, opts Options) *Engine {
	if opts.MaxClusters <= 0 {
		opts.MaxClusters = DefaultOptions().MaxClusters
	}
	if opts.CategoryTopKeywords <= 0 {
		opts.CategoryTopKeywords = DefaultOptions().CategoryTopKeywords
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultOptions().Fallback
	}
	if opts.KeywordsPerCategory <= 0 {
		opts.KeywordsPerCategory = DefaultOptions().KeywordsPerCategory
	}
	return &Engine{store: st, taxonomy: taxonomy, summarizer: summarizer, opts: opts}
}

// Result aggregates the counters of a full run.
type Result struct {
	Fixed    *FixedResult
	Cluster  *ClusterResult
	Fallback *FallbackResult
}

// Run executes the tiers in precedence order. Earlier tiers win: a channel
// assigned by a fixed rule is invisible to clustering, and clustering output
// is invisible to the fallback.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	fixed, err := e.ApplyFixed(ctx)
	if err != nil {
		return result, fmt.Errorf("applying fixed rules: %w", err)
	}
	result.Fixed = fixed

	cluster, err := e.Clusterize(ctx)
	if err != nil {
		return result, fmt.Errorf("clustering channels: %w", err)
	}
	result.Cluster = cluster

	if err := e.SynthesizeClusterKeywords(ctx); err != nil {
		return result, fmt.Errorf("synthesizing category keywords: %w", err)
	}

	if err := e.NameClusters(ctx); err != nil {
		return result, fmt.Errorf("naming clusters: %w", err)
	}

	fallback, err := e.AssignRemaining(ctx)
	if err != nil {
		return result, fmt.Errorf("assigning remaining channels: %w", err)
	}
	result.Fallback = fallback

	return result, nil
}

// NameClusters asks the summarizer for a short title for every cluster
// category that has keywords but no name yet. A failed completion is logged
// and skipped; the category stays numeric until a later run.
func (e *Engine) NameClusters(ctx context.Context) error {
	if e.summarizer == nil {
		logging.Logger.Debug().Msg("no summarizer configured, cluster categories stay unnamed")
		return nil
	}

	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return err
	}

	for _, cat := range categories {
		if cat.ClusterNumber == nil || cat.Name != nil {
			continue
		}
		if cat.Keywords == nil || *cat.Keywords == "" {
			continue
		}

		prompt := fmt.Sprintf(
			"Summarize a formal category title of YouTube channels in 1-4 words, using these keywords as a guide: %s",
			*cat.Keywords)
		name, err := e.summarizer.Complete(ctx, prompt, llm.CompletionOpts{MaxTokens: 32})
		if err != nil {
			logging.Logger.Warn().
				Err(err).
				Int64("cluster", *cat.ClusterNumber).
				Msg("category naming failed, keeping numeric identity")
			continue
		}

		name = strings.TrimSuffix(strings.TrimSpace(name), ".")
		if name == "" {
			continue
		}
		if err := e.store.UpdateCategoryName(ctx, cat.ID, name); err != nil {
			return err
		}
		logging.Logger.Info().
			Int64("cluster", *cat.ClusterNumber).
			Str("name", name).
			Msg("cluster category named")
	}
	return nil
}

// EnsureCategoryKeywords makes sure every category carries a keyword string
// for similarity matching. Categories created by the fixed taxonomy have
// none, so the summarizer generates a set from the category name; generated
// sets persist in cached_keywords and are reused on later runs.
func (e *Engine) EnsureCategoryKeywords(ctx context.Context) error {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return err
	}

	for _, cat := range categories {
		if cat.Keywords != nil && *cat.Keywords != "" {
			continue
		}
		if cat.CachedKeyword != nil && *cat.CachedKeyword != "" {
			if err := e.store.UpdateCategoryKeywords(ctx, cat.ID, *cat.CachedKeyword); err != nil {
				return err
			}
			continue
		}
		if e.summarizer == nil || cat.Name == nil {
			continue
		}

		prompt := fmt.Sprintf(
			"Generate %d relevant keywords for the YouTube channel category %q. Respond with the keywords only, separated by spaces.",
			e.opts.KeywordsPerCategory, *cat.Name)
		generated, err := e.summarizer.Complete(ctx, prompt, llm.CompletionOpts{MaxTokens: 256})
		if err != nil {
			logging.Logger.Warn().
				Err(err).
				Str("category", *cat.Name).
				Msg("keyword generation failed, category excluded from similarity matching")
			continue
		}

		generated = strings.ToLower(strings.TrimSpace(generated))
		if generated == "" {
			continue
		}
		if err := e.store.UpdateCategoryKeywords(ctx, cat.ID, generated); err != nil {
			return err
		}
	}
	return nil
}
