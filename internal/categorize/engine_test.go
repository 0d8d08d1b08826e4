package categorize

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/hpaavola/tubescope/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedChannel(t *testing.T, s store.Store, name, keywords string) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := s.AddChannel(ctx, name, "https://www.youtube.com/channel/"+name)
	if err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	if keywords != "" {
		if err := s.UpdateChannelKeywords(ctx, id, keywords); err != nil {
			t.Fatalf("UpdateChannelKeywords failed: %v", err)
		}
	}
	return id
}

func categoryOf(t *testing.T, s store.Store, channelName string) *store.Category {
	t.Helper()
	ctx := context.Background()

	ch, err := s.ChannelByURL(ctx, "https://www.youtube.com/channel/"+channelName)
	if err != nil {
		t.Fatalf("ChannelByURL failed: %v", err)
	}
	if ch == nil || ch.CategoryID == nil {
		return nil
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	for _, cat := range categories {
		if cat.ID == *ch.CategoryID {
			return cat
		}
	}
	t.Fatalf("channel %q references unknown category %d", channelName, *ch.CategoryID)
	return nil
}

// --- Fixed taxonomy ---

func TestApplyFixedAssignsByExactName(t *testing.T) {
	s := newTestStore(t)
	seedChannel(t, s, "Magnus Carlsen", "")
	seedChannel(t, s, "Unrelated Crafts", "")

	engine := NewEngine(s, DefaultTaxonomy(), nil, DefaultOptions())
	result, err := engine.ApplyFixed(context.Background())
	if err != nil {
		t.Fatalf("ApplyFixed failed: %v", err)
	}
	if result.ByName != 1 {
		t.Errorf("expected 1 name assignment, got %d", result.ByName)
	}

	cat := categoryOf(t, s, "Magnus Carlsen")
	if cat == nil || cat.Name == nil || *cat.Name != "Chess" {
		t.Errorf("expected Chess, got %+v", cat)
	}
	if got := categoryOf(t, s, "Unrelated Crafts"); got != nil {
		t.Errorf("expected unrelated channel to stay unassigned, got %+v", got)
	}
}

func TestApplyFixedAssignsByKeywordToken(t *testing.T) {
	s := newTestStore(t)
	seedChannel(t, s, "SciShow Fans", "scientist lab experiment")

	engine := NewEngine(s, DefaultTaxonomy(), nil, DefaultOptions())
	if _, err := engine.ApplyFixed(context.Background()); err != nil {
		t.Fatalf("ApplyFixed failed: %v", err)
	}

	cat := categoryOf(t, s, "SciShow Fans")
	if cat == nil || cat.Name == nil || *cat.Name != "Science and Technology" {
		t.Errorf("expected Science and Technology, got %+v", cat)
	}
}

func TestApplyFixedEarlierRuleWins(t *testing.T) {
	s := newTestStore(t)
	// Matches both the chess rule and the science rule; chess comes first.
	seedChannel(t, s, "Chess Science", "chess science")

	engine := NewEngine(s, DefaultTaxonomy(), nil, DefaultOptions())
	if _, err := engine.ApplyFixed(context.Background()); err != nil {
		t.Fatalf("ApplyFixed failed: %v", err)
	}

	cat := categoryOf(t, s, "Chess Science")
	if cat == nil || cat.Name == nil || *cat.Name != "Chess" {
		t.Errorf("expected first-match Chess, got %+v", cat)
	}
}

func TestApplyFixedDoesNotReassign(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	channelID := seedChannel(t, s, "Magnus Carlsen", "")

	name := "Preassigned"
	catID, err := s.AddCategory(ctx, &name, nil)
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := s.AssignCategoryIfUnset(ctx, channelID, catID); err != nil {
		t.Fatalf("AssignCategoryIfUnset failed: %v", err)
	}

	engine := NewEngine(s, DefaultTaxonomy(), nil, DefaultOptions())
	if _, err := engine.ApplyFixed(ctx); err != nil {
		t.Fatalf("ApplyFixed failed: %v", err)
	}

	cat := categoryOf(t, s, "Magnus Carlsen")
	if cat == nil || cat.Name == nil || *cat.Name != "Preassigned" {
		t.Errorf("expected earlier assignment to survive, got %+v", cat)
	}
}

func TestApplyFixedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedChannel(t, s, "Magnus Carlsen", "")

	engine := NewEngine(s, DefaultTaxonomy(), nil, DefaultOptions())
	ctx := context.Background()
	if _, err := engine.ApplyFixed(ctx); err != nil {
		t.Fatalf("first ApplyFixed failed: %v", err)
	}
	second, err := engine.ApplyFixed(ctx)
	if err != nil {
		t.Fatalf("second ApplyFixed failed: %v", err)
	}

	if second.Categories != 0 {
		t.Errorf("expected no new categories on re-run, got %d", second.Categories)
	}
	if second.ByName != 0 || second.ByKeyword != 0 {
		t.Errorf("expected no new assignments on re-run, got %+v", second)
	}
}

// --- Cluster count selection ---

func TestChooseClusterCount(t *testing.T) {
	cases := []struct {
		inertias []float64
		want     int
	}{
		// Steepest drop between k=2 and k=3.
		{[]float64{100, 90, 40, 38, 37}, 3},
		// Steepest drop right at the start.
		{[]float64{100, 30, 25, 24}, 2},
		// Monotone tail, steepest drop at the end.
		{[]float64{50, 49, 48, 10}, 4},
		{[]float64{10}, 1},
	}
	for _, tc := range cases {
		if got := chooseClusterCount(tc.inertias); got != tc.want {
			t.Errorf("chooseClusterCount(%v) = %d, want %d", tc.inertias, got, tc.want)
		}
	}
}

// --- TF-IDF ---

func TestTFIDFTransformIsNormalized(t *testing.T) {
	v := fitTFIDF([]string{"chess opening endgame", "cooking pasta", "chess tactics"})

	vec := v.transform("chess opening")
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit vector, squared norm %f", norm)
	}

	// Unknown terms map to the zero vector.
	zero := v.transform("quantum physics")
	for i, x := range zero {
		if x != 0 {
			t.Errorf("expected zero vector, component %d = %f", i, x)
		}
	}
}

func TestCosineRanksSharedVocabulary(t *testing.T) {
	v := fitTFIDF([]string{"chess opening endgame", "cooking pasta recipes", "chess tactics"})

	chess := v.transform("chess endgame")
	sameTopic := v.transform("chess opening")
	otherTopic := v.transform("cooking pasta")

	if cosine(chess, sameTopic) <= cosine(chess, otherTopic) {
		t.Error("expected shared-vocabulary documents to rank higher")
	}
	if sim := cosine(chess, chess); math.Abs(sim-1) > 1e-9 {
		t.Errorf("self-similarity = %f, want 1", sim)
	}
}

// --- Clustering ---

func TestClusterizeAssignsOnlyUncategorizedChannels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fixedID := seedChannel(t, s, "Magnus Carlsen", "chess opening")
	name := "Chess"
	catID, err := s.AddCategory(ctx, &name, nil)
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := s.AssignCategoryIfUnset(ctx, fixedID, catID); err != nil {
		t.Fatalf("AssignCategoryIfUnset failed: %v", err)
	}

	// Two well-separated topic groups for the clusterer.
	cooking := []string{"cooking pasta recipes", "cooking kitchen recipes", "cooking pasta kitchen"}
	astronomy := []string{"telescope galaxy stars", "telescope nebula stars", "galaxy nebula stars"}
	for i := 0; i < 3; i++ {
		seedChannel(t, s, fmt.Sprintf("cooking%d", i), cooking[i])
		seedChannel(t, s, fmt.Sprintf("astronomy%d", i), astronomy[i])
	}

	engine := NewEngine(s, Taxonomy{}, nil, Options{MaxClusters: 4})
	result, err := engine.Clusterize(ctx)
	if err != nil {
		t.Fatalf("Clusterize failed: %v", err)
	}

	if result.Candidates != 6 {
		t.Errorf("expected 6 candidates, got %d", result.Candidates)
	}
	if result.Assigned != 6 {
		t.Errorf("expected all candidates assigned, got %d", result.Assigned)
	}

	// The fixed assignment survives untouched.
	cat := categoryOf(t, s, "Magnus Carlsen")
	if cat == nil || cat.Name == nil || *cat.Name != "Chess" {
		t.Errorf("expected fixed assignment to survive, got %+v", cat)
	}

	// Every cluster category carries its cluster number.
	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	clusterCategories := 0
	for _, c := range categories {
		if c.ClusterNumber != nil {
			clusterCategories++
		}
	}
	if clusterCategories != result.Clusters {
		t.Errorf("expected %d cluster categories, got %d", result.Clusters, clusterCategories)
	}
}

func TestClusterizeSkipsTinyPopulations(t *testing.T) {
	s := newTestStore(t)
	seedChannel(t, s, "lonely", "solo keywords")

	engine := NewEngine(s, Taxonomy{}, nil, DefaultOptions())
	result, err := engine.Clusterize(context.Background())
	if err != nil {
		t.Fatalf("Clusterize failed: %v", err)
	}
	if result.Assigned != 0 || result.Clusters != 0 {
		t.Errorf("expected no clustering for one channel, got %+v", result)
	}
}

// --- Fallbacks ---

func TestSimilarityFallbackMatchesClosestCategory(t *testing.T) {
	chessName := "Chess"
	chessKeywords := "chess opening endgame tactics"
	cookingName := "Cooking"
	cookingKeywords := "cooking pasta recipes kitchen"

	categories := []*store.Category{
		{ID: 1, Name: &chessName, Keywords: &chessKeywords},
		{ID: 2, Name: &cookingName, Keywords: &cookingKeywords},
	}
	unlabeled := []store.ChannelKeywords{
		{ChannelID: 10, Keywords: "chess tactics puzzles"},
		{ChannelID: 11, Keywords: "pasta kitchen tips"},
		{ChannelID: 12, Keywords: "quantum gravity lectures"},
	}

	fb := &SimilarityFallback{}
	assignments, err := fb.Assign(nil, unlabeled, categories)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if assignments[10] != 1 {
		t.Errorf("expected channel 10 -> Chess, got %d", assignments[10])
	}
	if assignments[11] != 2 {
		t.Errorf("expected channel 11 -> Cooking, got %d", assignments[11])
	}
	if _, ok := assignments[12]; ok {
		t.Error("expected channel with disjoint vocabulary to stay unassigned")
	}
}

func TestSimilarityFallbackWithoutCategoryKeywords(t *testing.T) {
	name := "Bare"
	categories := []*store.Category{{ID: 1, Name: &name}}
	unlabeled := []store.ChannelKeywords{{ChannelID: 10, Keywords: "anything"}}

	fb := &SimilarityFallback{}
	assignments, err := fb.Assign(nil, unlabeled, categories)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("expected no assignments, got %v", assignments)
	}
}

func TestForestFallbackPredictsFromLabeledChannels(t *testing.T) {
	catA, catB := int64(1), int64(2)

	var labeled []store.ChannelKeywords
	for i := 0; i < 10; i++ {
		labeled = append(labeled,
			store.ChannelKeywords{ChannelID: int64(100 + i), CategoryID: &catA, Keywords: "chess opening endgame tactics"},
			store.ChannelKeywords{ChannelID: int64(200 + i), CategoryID: &catB, Keywords: "cooking pasta recipes kitchen"},
		)
	}
	unlabeled := []store.ChannelKeywords{
		{ChannelID: 10, Keywords: "chess tactics"},
		{ChannelID: 11, Keywords: "pasta recipes"},
	}

	fb := &ForestFallback{}
	assignments, err := fb.Assign(labeled, unlabeled, nil)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if assignments[10] != catA {
		t.Errorf("expected channel 10 -> %d, got %d", catA, assignments[10])
	}
	if assignments[11] != catB {
		t.Errorf("expected channel 11 -> %d, got %d", catB, assignments[11])
	}
}

func TestForestFallbackNeedsTrainingSignal(t *testing.T) {
	fb := &ForestFallback{}
	if _, err := fb.Assign(nil, []store.ChannelKeywords{{ChannelID: 1, Keywords: "x"}}, nil); err == nil {
		t.Error("expected error without labeled channels")
	}

	cat := int64(1)
	oneClass := []store.ChannelKeywords{
		{ChannelID: 1, CategoryID: &cat, Keywords: "a b"},
		{ChannelID: 2, CategoryID: &cat, Keywords: "a c"},
	}
	if _, err := fb.Assign(oneClass, []store.ChannelKeywords{{ChannelID: 3, Keywords: "a"}}, nil); err == nil {
		t.Error("expected error with a single training class")
	}
}

func TestHoldoutSplitIsDeterministic(t *testing.T) {
	train1, test1 := holdoutSplit(20, 0.1)
	train2, test2 := holdoutSplit(20, 0.1)

	if len(test1) != 2 || len(train1) != 18 {
		t.Errorf("unexpected split sizes: %d train, %d test", len(train1), len(test1))
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatal("expected deterministic holdout split")
		}
	}
	for i := range train1 {
		if train1[i] != train2[i] {
			t.Fatal("expected deterministic holdout split")
		}
	}
}
