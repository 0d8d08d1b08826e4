package categorize

import (
	"github.com/hpaavola/tubescope/internal/store"
)

// SimilarityFallback matches each uncategorized channel to the category
// whose keyword string is closest in TF-IDF cosine similarity. The
// vectorizer is fitted jointly over category and channel keyword strings so
// both live in the same vocabulary.
type SimilarityFallback struct{}

func (s *SimilarityFallback) Name() string { return "similarity" }

func (s *SimilarityFallback) Assign(labeled, unlabeled []store.ChannelKeywords, categories []*store.Category) (map[int64]int64, error) {
	type candidate struct {
		id       int64
		keywords string
	}
	candidates := make([]candidate, 0, len(categories))
	for _, cat := range categories {
		if cat.Keywords == nil || *cat.Keywords == "" {
			continue
		}
		candidates = append(candidates, candidate{id: cat.ID, keywords: *cat.Keywords})
	}
	if len(candidates) == 0 {
		return map[int64]int64{}, nil
	}

	docs := make([]string, 0, len(candidates)+len(unlabeled))
	for _, c := range candidates {
		docs = append(docs, c.keywords)
	}
	for _, row := range unlabeled {
		docs = append(docs, row.Keywords)
	}
	vectorizer := fitTFIDF(docs)

	categoryVectors := make([][]float64, len(candidates))
	for i, c := range candidates {
		categoryVectors[i] = vectorizer.transform(c.keywords)
	}

	assignments := make(map[int64]int64, len(unlabeled))
	for _, row := range unlabeled {
		vec := vectorizer.transform(row.Keywords)

		best := -1
		bestSim := 0.0
		for i, catVec := range categoryVectors {
			sim := cosine(vec, catVec)
			if sim > bestSim {
				best = i
				bestSim = sim
			}
		}
		// A channel sharing no vocabulary with any category stays put.
		if best < 0 {
			continue
		}
		assignments[row.ChannelID] = candidates[best].id
	}
	return assignments, nil
}
