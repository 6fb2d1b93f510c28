package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pantrypilot/pantrypilot-api/internal/testutil"
)

// newTestRecommendationService wires a RecommendationService over mocks. The
// crawler is nil; tests never take the live-crawl fallback path.
func newTestRecommendationService(recipeRepo *testutil.MockRecipeRepo, cacheRepo *testutil.MockCacheRepo) *RecommendationService {
	vectors := &testutil.MockVectorRepo{}
	embeddings := &testutil.MockEmbeddingProvider{}
	cache := NewCacheService(cacheRepo)
	recipes := NewRecipeService(recipeRepo, vectors, cache, nil, &testutil.MockTextProvider{}, embeddings, nil)
	return NewRecommendationService(recipes, NewScorer(vectors, embeddings), cache)
}

func missCacheRepo() *testutil.MockCacheRepo {
	return &testutil.MockCacheRepo{
		GetByHashFunc: func(string) (*models.RecipeCache, error) {
			return nil, repository.NotFoundError{}
		},
		UpsertFunc: func(*models.RecipeCache) error { return nil },
	}
}

func namedRecipe(title string, cuisine string, ingredients ...string) models.Recipe {
	r := models.Recipe{
		ID:      uuid.New(),
		Title:   title,
		Cuisine: cuisine,
	}
	for _, ing := range ingredients {
		r.Ingredients = append(r.Ingredients, models.Ingredient{Name: ing})
	}
	return r
}

func TestRecommendEmptyPantry(t *testing.T) {
	svc := newTestRecommendationService(&testutil.MockRecipeRepo{}, missCacheRepo())
	got, err := svc.Recommend(context.Background(), nil, "", Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty pantry returned %d recommendations, want 0", len(got))
	}
}

func TestRecommendRanksBestFirst(t *testing.T) {
	recipeRepo := &testutil.MockRecipeRepo{
		ListRecipesFunc: func(cuisine string, limit int) ([]models.Recipe, error) {
			return []models.Recipe{
				namedRecipe("Weak", "", "saffron", "truffle"),
				namedRecipe("Strong", "", "garlic", "onion"),
				namedRecipe("Partial", "", "garlic", "saffron"),
			}, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, missCacheRepo())

	got, err := svc.Recommend(context.Background(), []string{"garlic", "onion"}, "", Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(got))
	}
	if got[0].Title != "Strong" || got[1].Title != "Partial" || got[2].Title != "Weak" {
		t.Errorf("wrong order: %s, %s, %s", got[0].Title, got[1].Title, got[2].Title)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at index %d", i)
		}
	}
}

func TestRecommendMaxMissingFilter(t *testing.T) {
	recipeRepo := &testutil.MockRecipeRepo{
		ListRecipesFunc: func(string, int) ([]models.Recipe, error) {
			return []models.Recipe{
				namedRecipe("AllThere", "", "garlic"),
				namedRecipe("TwoMissing", "", "garlic", "saffron", "truffle"),
			}, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, missCacheRepo())

	maxMissing := 1
	got, err := svc.Recommend(context.Background(), []string{"garlic"}, "", Filters{MaxMissing: &maxMissing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "AllThere" {
		t.Errorf("max_missing filter kept %v", titles(got))
	}
}

func TestRecommendMaxTimeFilter(t *testing.T) {
	quick := namedRecipe("Quick", "", "garlic")
	quick.PrepTime = "10 mins"
	quick.CookTime = "15 mins"
	slow := namedRecipe("Slow", "", "garlic")
	slow.PrepTime = "1 hr"
	slow.CookTime = "45 mins"
	unknown := namedRecipe("Unknown", "", "garlic")

	recipeRepo := &testutil.MockRecipeRepo{
		ListRecipesFunc: func(string, int) ([]models.Recipe, error) {
			return []models.Recipe{quick, slow, unknown}, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, missCacheRepo())

	maxTime := 30
	got, err := svc.Recommend(context.Background(), []string{"garlic"}, "", Filters{MaxTime: &maxTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Quick" {
		t.Errorf("max_time filter kept %v, want only Quick", titles(got))
	}
}

func TestRecommendLimitDefaultsToTen(t *testing.T) {
	recipeRepo := &testutil.MockRecipeRepo{
		ListRecipesFunc: func(string, int) ([]models.Recipe, error) {
			recipes := make([]models.Recipe, 15)
			for i := range recipes {
				recipes[i] = namedRecipe("R", "", "garlic")
			}
			return recipes, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, missCacheRepo())

	got, err := svc.Recommend(context.Background(), []string{"garlic"}, "", Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("got %d recommendations, want default limit of 10", len(got))
	}
}

func TestRecommendServesFromCache(t *testing.T) {
	cached := models.ScoredRecipes{testutil.TestScoredRecipe(0.8)}
	cacheRepo := &testutil.MockCacheRepo{
		GetByHashFunc: func(string) (*models.RecipeCache, error) {
			return &models.RecipeCache{
				Results:   cached,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	recipeRepo := &testutil.MockRecipeRepo{
		ListRecipesFunc: func(string, int) ([]models.Recipe, error) {
			t.Error("cache hit should not reach storage")
			return nil, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, cacheRepo)

	got, err := svc.Recommend(context.Background(), []string{"garlic"}, "", Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != cached[0].Title {
		t.Errorf("got %v, want cached results", titles(got))
	}
}

func TestRecommendationCacheKey(t *testing.T) {
	if got := recommendationCacheKey([]string{"b", "a"}, "chicken"); got != "chicken" {
		t.Errorf("query should win as cache key, got %q", got)
	}
	if got := recommendationCacheKey([]string{"b", "a", "c"}, ""); got != "a,b,c" {
		t.Errorf("pantry key = %q, want sorted join", got)
	}
	if recommendationCacheKey([]string{"a", "b"}, "") != recommendationCacheKey([]string{"b", "a"}, "") {
		t.Error("pantry order changed the cache key")
	}
}

func TestPersonalizeFeed(t *testing.T) {
	svc := newTestRecommendationService(&testutil.MockRecipeRepo{}, missCacheRepo())

	italian := models.ScoredRecipe{Recipe: namedRecipe("Italian", "Italian"), Score: 0.5}
	mexican := models.ScoredRecipe{Recipe: namedRecipe("Mexican", "Mexican"), Score: 0.6}
	high := models.ScoredRecipe{Recipe: namedRecipe("High", "Italian"), Score: 0.95}

	got := svc.PersonalizeFeed([]models.ScoredRecipe{mexican, italian, high}, []string{"italian"})
	if got[0].Title != "High" {
		t.Errorf("got %q first, want High", got[0].Title)
	}
	if got[0].Score != 1 {
		t.Errorf("boosted score %v, want clamped to 1", got[0].Score)
	}
	if got[1].Title != "Italian" {
		t.Errorf("boosted Italian should outrank unboosted Mexican, got %q", got[1].Title)
	}
	// Input slice stays untouched.
	if mexican.Score != 0.6 || italian.Score != 0.5 {
		t.Error("PersonalizeFeed mutated its input")
	}
}

func TestShoppingList(t *testing.T) {
	recipe := testutil.TestRecipe()
	recipeRepo := &testutil.MockRecipeRepo{
		GetRecipeByIDFunc: func(id uuid.UUID) (*models.Recipe, error) {
			return recipe, nil
		},
	}
	svc := newTestRecommendationService(recipeRepo, missCacheRepo())

	got, err := svc.ShoppingList(recipe.ID, []string{"pizza dough", "mozzarella", "basil"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RecipeTitle != recipe.Title {
		t.Errorf("RecipeTitle = %q, want %q", got.RecipeTitle, recipe.Title)
	}
	want := map[string]bool{"tomato sauce": true, "olive oil": true}
	if len(got.Missing) != len(want) {
		t.Fatalf("shopping list has %d items, want %d: %v", len(got.Missing), len(want), got.Missing)
	}
	for _, ing := range got.Missing {
		if !want[ing.Name] {
			t.Errorf("unexpected shopping list item %q", ing.Name)
		}
	}
	// Three of five ingredients covered.
	if got.Confidence != "60.0% match" {
		t.Errorf("Confidence = %q, want \"60.0%% match\"", got.Confidence)
	}
}

func titles(scored []models.ScoredRecipe) []string {
	out := make([]string, len(scored))
	for i, sr := range scored {
		out[i] = sr.Title
	}
	return out
}
