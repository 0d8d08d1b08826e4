package keywords

import (
	"regexp"
	"sort"
	"strings"
)

var nonWordRE = regexp.MustCompile(`[^\w\s]`)

// TopKeywords extracts the most frequent tokens from the given text, joined
// with spaces. Ties break alphabetically so the output is deterministic.
func TopKeywords(text string, max int) string {
	text = strings.ToLower(nonWordRE.ReplaceAllString(text, ""))

	freq := make(map[string]int)
	for _, word := range strings.Fields(text) {
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if max > 0 && len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}
