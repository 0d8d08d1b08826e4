package categorize

import (
	"fmt"
	"math/rand"

	randomforest "github.com/malaschitz/randomForest"

	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/store"
)

const (
	forestTrees       = 100
	forestHoldout     = 0.1
	forestShuffleSeed = 42
)

// ForestFallback trains a random forest on the keyword vectors of already
// categorized channels and predicts a category for the rest. A holdout slice
// of the training data is kept aside to report accuracy; the split is seeded
// so repeated runs see the same evaluation set.
type ForestFallback struct{}

func (f *ForestFallback) Name() string { return "forest" }

func (f *ForestFallback) Assign(labeled, unlabeled []store.ChannelKeywords, categories []*store.Category) (map[int64]int64, error) {
	if len(labeled) < 2 {
		return nil, fmt.Errorf("need at least 2 labeled channels, have %d", len(labeled))
	}

	// Classes are dense indices over the category IDs seen in training.
	classOf := make(map[int64]int)
	categoryOf := make([]int64, 0)
	for _, row := range labeled {
		if row.CategoryID == nil {
			continue
		}
		if _, ok := classOf[*row.CategoryID]; !ok {
			classOf[*row.CategoryID] = len(categoryOf)
			categoryOf = append(categoryOf, *row.CategoryID)
		}
	}
	if len(categoryOf) < 2 {
		return nil, fmt.Errorf("need at least 2 distinct categories, have %d", len(categoryOf))
	}

	docs := make([]string, 0, len(labeled)+len(unlabeled))
	for _, row := range labeled {
		docs = append(docs, row.Keywords)
	}
	for _, row := range unlabeled {
		docs = append(docs, row.Keywords)
	}
	vectorizer := fitTFIDF(docs)

	xs := make([][]float64, len(labeled))
	ys := make([]int, len(labeled))
	for i, row := range labeled {
		xs[i] = vectorizer.transform(row.Keywords)
		ys[i] = classOf[*row.CategoryID]
	}

	trainIdx, testIdx := holdoutSplit(len(labeled), forestHoldout)

	forest := randomforest.Forest{}
	forest.Data = randomforest.ForestData{
		X:     pick(xs, trainIdx),
		Class: pickInts(ys, trainIdx),
	}
	forest.Train(forestTrees)

	if len(testIdx) > 0 {
		correct := 0
		for _, i := range testIdx {
			if argmax(forest.Vote(xs[i])) == ys[i] {
				correct++
			}
		}
		logging.Logger.Info().
			Int("train", len(trainIdx)).
			Int("test", len(testIdx)).
			Float64("accuracy", float64(correct)/float64(len(testIdx))).
			Msg("forest fallback trained")
	}

	assignments := make(map[int64]int64, len(unlabeled))
	for _, row := range unlabeled {
		votes := forest.Vote(vectorizer.transform(row.Keywords))
		class := argmax(votes)
		if class < 0 || class >= len(categoryOf) {
			continue
		}
		assignments[row.ChannelID] = categoryOf[class]
	}
	return assignments, nil
}

// holdoutSplit shuffles indices 0..n-1 deterministically and reserves the
// given fraction for evaluation. Training always keeps at least one sample.
func holdoutSplit(n int, fraction float64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(forestShuffleSeed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	cut := int(float64(n) * fraction)
	if cut >= n {
		cut = n - 1
	}
	return idx[cut:], idx[:cut]
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func pickInts(vals []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}

func argmax(vals []float64) int {
	best := -1
	bestVal := 0.0
	for i, v := range vals {
		if best == -1 || v > bestVal {
			best = i
			bestVal = v
		}
	}
	return best
}
