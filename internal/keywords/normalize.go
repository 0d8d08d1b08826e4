// Package keywords derives normalized keyword strings from noisy video and
// channel text.
//
// The pipeline is idempotent: running Normalize on an already-normalized
// string returns the same string, so keyword extraction can be re-run over
// the whole store at any time.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/kljensen/snowball"
)

// domainStopWords are platform-generic noise words that carry no signal for
// categorization ("subscribe", "channel", ...). Filtered both before and
// after stemming, because stemming can resurface filtered forms.
var domainStopWords = buildStopSet(
	"best,better,breaking,care,center,channel,check,clip,comment,contact,content,day,dont," +
		"drone,dw,el,email,en,enjoy,et,facebook,follow,free,gm,guy,help,hope,im,improve,inquiry,instagram," +
		"know,latest,life,like,line,live,look,los,love,medium,model,new,news,performance,official," +
		"online,people,place,product,que,scene,service,short,start,state,subscribe,subscriber," +
		"support,thanks,thing,tiktok,time,topic,tv,twitter,u,use,video,videos,want,watch," +
		"welcome,world,year,youtube")

var urlRE = regexp.MustCompile(`http\S+`)

// Normalize reduces raw text to a deduplicated, space-joined set of
// significant root-form tokens, sorted for determinism.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = stripPunctAndDigits(text)
	text = urlRE.ReplaceAllString(text, "")

	// General-language stopword removal; returns a space-joined remainder.
	text = stopwords.CleanString(text, "en", false)

	seen := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		if _, stop := domainStopWords[token]; stop {
			continue
		}
		if len([]rune(token)) < 2 {
			continue
		}

		stemmed, err := snowball.Stem(token, "english", true)
		if err != nil || stemmed == "" {
			stemmed = token
		}
		// Stemming can map a token back onto a noise word.
		if _, stop := domainStopWords[stemmed]; stop {
			continue
		}
		if len([]rune(stemmed)) < 2 {
			continue
		}
		seen[stemmed] = struct{}{}
	}

	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func stripPunctAndDigits(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsDigit(r) || unicode.IsSymbol(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func buildStopSet(csv string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Split(csv, ",") {
		w = strings.TrimSpace(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
