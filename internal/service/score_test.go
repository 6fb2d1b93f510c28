package service

import (
	"context"
	"math"
	"testing"

	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/testutil"
)

func TestNormalizeIngredient(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Fresh Basil", "basil"},
		{"dried oregano", "oregano"},
		{"chopped onions", "onions"},
		{"  Tomatoes  ", "tomatoes"},
		{"garlic", "garlic"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeIngredient(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeIngredient(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIngredientIdempotent(t *testing.T) {
	once := NormalizeIngredient("Fresh Chopped Basil")
	twice := NormalizeIngredient(once)
	if once != twice {
		t.Errorf("normalizing twice changed the result: %q vs %q", once, twice)
	}
}

func TestFuzzyRatio(t *testing.T) {
	if got := fuzzyRatio("tomato", "tomato"); got != 100 {
		t.Errorf("identical strings scored %v, want 100", got)
	}
	if got := fuzzyRatio("", ""); got != 100 {
		t.Errorf("two empty strings scored %v, want 100", got)
	}
	// One substitution in four characters is two edits out of eight.
	if got := fuzzyRatio("aaab", "aaaa"); got != 75 {
		t.Errorf("fuzzyRatio(aaab, aaaa) = %v, want exactly 75", got)
	}
	if got := fuzzyRatio("tomatoes", "tomato"); got <= 75 {
		t.Errorf("fuzzyRatio(tomatoes, tomato) = %v, want > 75", got)
	}
}

func newLexicalScorer() *Scorer {
	return NewScorer(&testutil.MockVectorRepo{}, &testutil.MockEmbeddingProvider{})
}

func lexicalOpts() ScoreOptions {
	opts := DefaultScoreOptions()
	opts.UseEmbeddings = false
	return opts
}

func TestScorePerfectMatch(t *testing.T) {
	recipe := testutil.TestRecipe()
	pantry := []string{"pizza dough", "tomato sauce", "mozzarella", "basil", "olive oil"}

	scored := newLexicalScorer().Score(context.Background(), pantry, nil, recipe, lexicalOpts())
	if scored.Score != 1 {
		t.Errorf("full pantry scored %v, want 1", scored.Score)
	}
	if scored.MatchPercentage != 100 {
		t.Errorf("MatchPercentage = %v, want 100", scored.MatchPercentage)
	}
	if len(scored.MissingIngredients) != 0 {
		t.Errorf("unexpected missing ingredients: %v", scored.MissingIngredients)
	}
}

func TestScoreZeroIngredients(t *testing.T) {
	recipe := &models.Recipe{Title: "Empty"}
	scored := newLexicalScorer().Score(context.Background(), []string{"flour"}, nil, recipe, lexicalOpts())
	if scored.Score != 0 {
		t.Errorf("recipe with no ingredients scored %v, want 0", scored.Score)
	}
}

func TestScoreFuzzyBoundaryNotCounted(t *testing.T) {
	recipe := &models.Recipe{
		Title:       "Boundary",
		Ingredients: models.Ingredients{{Name: "aaab"}},
	}
	scored := newLexicalScorer().Score(context.Background(), []string{"aaaa"}, nil, recipe, lexicalOpts())
	if scored.FuzzyMatches != 0 {
		t.Errorf("ratio of exactly 75 counted as fuzzy match")
	}
	if len(scored.MissingIngredients) != 1 {
		t.Errorf("boundary ingredient should be missing, got %v", scored.MissingIngredients)
	}
}

func TestScoreMixedMatches(t *testing.T) {
	recipe := &models.Recipe{
		Title: "Mixed",
		Ingredients: models.Ingredients{
			{Name: "garlic"},
			{Name: "tomatoes"},
		},
	}
	scored := newLexicalScorer().Score(context.Background(), []string{"garlic", "tomato"}, nil, recipe, lexicalOpts())
	if scored.ExactMatches != 1 || scored.FuzzyMatches != 1 {
		t.Fatalf("got %d exact, %d fuzzy, want 1 and 1", scored.ExactMatches, scored.FuzzyMatches)
	}
	want := (1.0 + 0.7) / 2.0
	if math.Abs(scored.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", scored.Score, want)
	}
}

func TestScoreDuplicateIngredients(t *testing.T) {
	recipe := &models.Recipe{
		Title: "Doubled",
		Ingredients: models.Ingredients{
			{Name: "basil"},
			{Name: "basil"},
		},
	}

	// Each occurrence fuzzy-matches the pantry independently.
	scored := newLexicalScorer().Score(context.Background(), []string{"bazil"}, nil, recipe, lexicalOpts())
	if scored.FuzzyMatches != 2 {
		t.Errorf("FuzzyMatches = %d, want 2 (one per occurrence)", scored.FuzzyMatches)
	}
	if want := 0.7 * 2 / 2; math.Abs(scored.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", scored.Score, want)
	}

	// Exact matches stay distinct, and a duplicated absent ingredient is
	// listed once per occurrence.
	recipe.Ingredients = models.Ingredients{
		{Name: "basil"},
		{Name: "basil"},
		{Name: "saffron"},
		{Name: "saffron"},
	}
	scored = newLexicalScorer().Score(context.Background(), []string{"basil"}, nil, recipe, lexicalOpts())
	if scored.ExactMatches != 1 {
		t.Errorf("ExactMatches = %d, want 1 distinct", scored.ExactMatches)
	}
	if len(scored.MissingIngredients) != 2 {
		t.Errorf("missing = %v, want saffron listed twice", scored.MissingIngredients)
	}
}

func TestScoreMissingOrderPreserved(t *testing.T) {
	recipe := &models.Recipe{
		Title: "Ordered",
		Ingredients: models.Ingredients{
			{Name: "saffron"},
			{Name: "garlic"},
			{Name: "truffle oil"},
		},
	}
	scored := newLexicalScorer().Score(context.Background(), []string{"garlic"}, nil, recipe, lexicalOpts())
	if len(scored.MissingIngredients) != 2 {
		t.Fatalf("missing = %v, want 2 entries", scored.MissingIngredients)
	}
	if scored.MissingIngredients[0] != "saffron" || scored.MissingIngredients[1] != "truffle oil" {
		t.Errorf("missing ingredients out of recipe order: %v", scored.MissingIngredients)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("parallel vectors = %v, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors = %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero-norm vector = %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths = %v, want 0", got)
	}
}
