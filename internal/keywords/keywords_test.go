package keywords

import (
	"context"
	"strings"
	"testing"

	"github.com/hpaavola/tubescope/internal/store"
)

// --- Normalize ---

func TestNormalizeStripsNoise(t *testing.T) {
	got := Normalize("Subscribe NOW!!! Deep dive into GARDENING 101, visit http://example.com/promo")
	if strings.Contains(got, "subscribe") {
		t.Errorf("domain stopword survived: %q", got)
	}
	if strings.Contains(got, "http") || strings.Contains(got, "example") {
		t.Errorf("URL fragment survived: %q", got)
	}
	if !strings.Contains(got, "garden") {
		t.Errorf("expected stemmed topic token, got %q", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize("Cooking pasta recipes and baking sourdough bread at home")
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize not idempotent:\n once: %q\ntwice: %q", once, twice)
	}
}

func TestNormalizeDeduplicatesAndSorts(t *testing.T) {
	got := Normalize("guitar guitar amplifier guitar")
	fields := strings.Fields(got)
	seen := map[string]bool{}
	for i, f := range fields {
		if seen[f] {
			t.Errorf("duplicate token %q in %q", f, got)
		}
		seen[f] = true
		if i > 0 && fields[i-1] > f {
			t.Errorf("tokens not sorted: %q", got)
		}
	}
}

func TestNormalizeDropsShortTokens(t *testing.T) {
	got := Normalize("x yz chemistry")
	if strings.Contains(" "+got+" ", " x ") {
		t.Errorf("single-rune token survived: %q", got)
	}
}

// --- TopKeywords ---

func TestTopKeywordsOrdersByFrequency(t *testing.T) {
	text := "chess chess chess opening opening endgame"
	got := TopKeywords(text, 2)
	if got != "chess opening" {
		t.Errorf("TopKeywords = %q, want %q", got, "chess opening")
	}
}

func TestTopKeywordsBreaksTiesAlphabetically(t *testing.T) {
	got := TopKeywords("zebra apple", 2)
	if got != "apple zebra" {
		t.Errorf("TopKeywords = %q, want %q", got, "apple zebra")
	}
}

func TestTopKeywordsUnlimitedWhenMaxZero(t *testing.T) {
	got := TopKeywords("one two three", 0)
	if len(strings.Fields(got)) != 3 {
		t.Errorf("expected all tokens, got %q", got)
	}
}

// --- Engine ---

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEngineUpdatesVideoAndChannelKeywords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	channelID, err := s.AddChannel(ctx, "chess channel", "https://www.youtube.com/channel/UCchess")
	if err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	if _, err := s.AddVideo(ctx, channelID, "Sicilian Defense masterclass with grandmaster analysis", "https://www.youtube.com/watch?v=1"); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}
	if _, err := s.AddVideo(ctx, channelID, "Endgame techniques every grandmaster knows", "https://www.youtube.com/watch?v=2"); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	engine := NewEngine(s, 7)

	videos, err := engine.UpdateVideoKeywords(ctx)
	if err != nil {
		t.Fatalf("UpdateVideoKeywords failed: %v", err)
	}
	if videos != 2 {
		t.Errorf("expected 2 videos updated, got %d", videos)
	}

	channels, err := engine.UpdateChannelKeywords(ctx)
	if err != nil {
		t.Fatalf("UpdateChannelKeywords failed: %v", err)
	}
	if channels != 1 {
		t.Errorf("expected 1 channel updated, got %d", channels)
	}

	ch, err := s.ChannelByURL(ctx, "https://www.youtube.com/channel/UCchess")
	if err != nil {
		t.Fatalf("ChannelByURL failed: %v", err)
	}
	if ch.Keywords == nil || *ch.Keywords == "" {
		t.Fatal("expected channel keywords to be set")
	}
	if !strings.Contains(*ch.Keywords, "grandmast") {
		t.Errorf("expected recurring stem in channel keywords, got %q", *ch.Keywords)
	}
	if len(strings.Fields(*ch.Keywords)) > 7 {
		t.Errorf("expected at most 7 channel keywords, got %q", *ch.Keywords)
	}
}

func TestEngineSkipsChannelsWithoutVideos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddChannel(ctx, "silent", "https://www.youtube.com/channel/UCsilent"); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}

	engine := NewEngine(s, 7)
	channels, err := engine.UpdateChannelKeywords(ctx)
	if err != nil {
		t.Fatalf("UpdateChannelKeywords failed: %v", err)
	}
	if channels != 0 {
		t.Errorf("expected no channels updated, got %d", channels)
	}
}
