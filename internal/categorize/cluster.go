package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/hpaavola/tubescope/internal/keywords"
	"github.com/hpaavola/tubescope/internal/logging"
)

// ClusterResult holds counters from the tier-2 pass.
type ClusterResult struct {
	Clusters   int
	Assigned   int
	Candidates int
}

// Clusterize runs the unsupervised tier: TF-IDF over the keyword strings of
// channels no earlier tier assigned, k-means with the cluster count picked
// from the inertia curve, and category materialization by cluster number.
// Channels already holding a category are never touched.
func (e *Engine) Clusterize(ctx context.Context) (*ClusterResult, error) {
	rows, err := e.store.UncategorizedChannelsWithKeywords(ctx)
	if err != nil {
		return nil, err
	}

	result := &ClusterResult{Candidates: len(rows)}
	if len(rows) < 2 {
		logging.Logger.Info().Int("channels", len(rows)).Msg("too few channels to cluster")
		return result, nil
	}

	docs := make([]string, len(rows))
	for i, row := range rows {
		docs[i] = row.Keywords
	}

	vectorizer := fitTFIDF(docs)
	observations := make(clusters.Observations, len(docs))
	for i, doc := range docs {
		observations[i] = clusters.Coordinates(vectorizer.transform(doc))
	}

	kMax := e.opts.MaxClusters
	if kMax > len(rows) {
		kMax = len(rows)
	}

	inertias, err := inertiaCurve(observations, kMax)
	if err != nil {
		return nil, err
	}
	k := chooseClusterCount(inertias)
	logging.Logger.Info().Int("k", k).Int("k_max", kMax).Msg("cluster count selected from inertia curve")

	labels, err := clusterLabels(observations, k)
	if err != nil {
		return nil, err
	}

	// Materialize one category per distinct cluster label, reusing rows
	// from earlier runs by cluster number.
	categoryByLabel := make(map[int]int64, k)
	for label := 0; label < k; label++ {
		id, err := e.ensureClusterCategory(ctx, int64(label))
		if err != nil {
			return result, err
		}
		categoryByLabel[label] = id
	}
	result.Clusters = k

	for i, row := range rows {
		assigned, err := e.store.AssignCategoryIfUnset(ctx, row.ChannelID, categoryByLabel[labels[i]])
		if err != nil {
			return result, err
		}
		if assigned {
			result.Assigned++
		}
	}

	logging.Logger.Info().
		Int("clusters", result.Clusters).
		Int("assigned", result.Assigned).
		Msg("channels clustered")
	return result, nil
}

// SynthesizeClusterKeywords pools each cluster category's member-channel
// keyword strings and keeps the most frequent tokens as category keywords.
func (e *Engine) SynthesizeClusterKeywords(ctx context.Context) error {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return err
	}

	for _, cat := range categories {
		if cat.ClusterNumber == nil {
			continue
		}
		memberKeywords, err := e.store.ChannelKeywordsForCluster(ctx, *cat.ClusterNumber)
		if err != nil {
			return err
		}
		if len(memberKeywords) == 0 {
			continue
		}

		pool := strings.Join(memberKeywords, " ")
		top := keywords.TopKeywords(pool, e.opts.CategoryTopKeywords)
		if err := e.store.UpdateCategoryKeywords(ctx, cat.ID, top); err != nil {
			return err
		}
	}
	return nil
}

// inertiaCurve records the within-cluster sum of squared distances for
// k = 1..kMax.
func inertiaCurve(observations clusters.Observations, kMax int) ([]float64, error) {
	inertias := make([]float64, 0, kMax)
	for k := 1; k <= kMax; k++ {
		if k == 1 {
			// A single cluster needs no partitioning: its center is the mean.
			inertias = append(inertias, totalScatter(observations))
			continue
		}
		km := kmeans.New()
		partition, err := km.Partition(observations, k)
		if err != nil {
			return nil, fmt.Errorf("clustering with k=%d: %w", k, err)
		}
		inertias = append(inertias, inertia(partition))
	}
	return inertias, nil
}

// chooseClusterCount picks the k at the bottom of the steepest single
// inertia drop. inertias[i] is the inertia for k=i+1. This is not the
// classic diminishing-returns knee; it follows the curve's largest one-step
// improvement.
func chooseClusterCount(inertias []float64) int {
	if len(inertias) < 2 {
		return len(inertias)
	}

	best := 0
	bestDrop := 0.0
	for i := 1; i < len(inertias); i++ {
		drop := inertias[i-1] - inertias[i]
		if drop > bestDrop {
			bestDrop = drop
			best = i
		}
	}
	return best + 1
}

// clusterLabels partitions observations into k clusters and returns the
// cluster index of each observation in input order.
func clusterLabels(observations clusters.Observations, k int) ([]int, error) {
	labels := make([]int, len(observations))
	if k <= 1 {
		return labels, nil
	}

	km := kmeans.New()
	partition, err := km.Partition(observations, k)
	if err != nil {
		return nil, fmt.Errorf("clustering with k=%d: %w", k, err)
	}

	for i, obs := range observations {
		labels[i] = partition.Nearest(obs)
	}
	return labels, nil
}

func inertia(partition clusters.Clusters) float64 {
	var total float64
	for _, c := range partition {
		for _, obs := range c.Observations {
			total += obs.Distance(c.Center)
		}
	}
	return total
}

// totalScatter is the inertia of the trivial one-cluster partition.
func totalScatter(observations clusters.Observations) float64 {
	if len(observations) == 0 {
		return 0
	}

	dims := len(observations[0].Coordinates())
	center := make(clusters.Coordinates, dims)
	for _, obs := range observations {
		for i, v := range obs.Coordinates() {
			center[i] += v
		}
	}
	for i := range center {
		center[i] /= float64(len(observations))
	}

	var total float64
	for _, obs := range observations {
		total += obs.Distance(center)
	}
	return total
}

func (e *Engine) ensureClusterCategory(ctx context.Context, clusterNumber int64) (int64, error) {
	existing, err := e.store.CategoryByClusterNumber(ctx, clusterNumber)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	return e.store.AddCategory(ctx, nil, &clusterNumber)
}
