package categorize

import (
	"math"
	"sort"
	"strings"
)

// tfidfVectorizer maps keyword strings onto a fixed TF-IDF vector space.
// Vocabulary order is sorted so vectors are deterministic across runs.
type tfidfVectorizer struct {
	vocab map[string]int
	idf   []float64
}

// fitTFIDF learns vocabulary and inverse document frequencies from docs.
// IDF uses the smoothed form ln((1+n)/(1+df)) + 1 so unseen terms never
// divide by zero.
func fitTFIDF(docs []string) *tfidfVectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range strings.Fields(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &tfidfVectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// transform maps one document into an L2-normalized TF-IDF vector.
// Terms outside the fitted vocabulary are ignored.
func (v *tfidfVectorizer) transform(doc string) []float64 {
	vec := make([]float64, len(v.idf))
	for _, term := range strings.Fields(doc) {
		if i, ok := v.vocab[term]; ok {
			vec[i]++
		}
	}

	var norm float64
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// cosine returns the cosine similarity of two equal-length vectors.
func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
