package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/util"
	"go.uber.org/zap"
)

const (
	// similarityThreshold gates vector candidate retrieval.
	similarityThreshold = 0.7
	// maxCandidates caps how many stored recipes one recommendation pass
	// scores.
	maxCandidates = 50
	// defaultLimit is how many recommendations come back when the caller
	// does not say.
	defaultLimit = 10
	// cuisineBoost is added to the score of recipes matching a preferred
	// cuisine when personalizing a feed.
	cuisineBoost = 0.2
)

// Filters narrows and sizes a recommendation response.
type Filters struct {
	// MaxMissing drops recipes missing more than this many ingredients.
	MaxMissing *int
	// Cuisine keeps only recipes with this cuisine label.
	Cuisine string
	// MaxTime drops recipes whose prep plus cook time exceeds this many
	// minutes. Recipes with unknown timing are dropped too.
	MaxTime *int
	// Limit caps the response size; zero means the default of ten.
	Limit int
}

// RecommendationService ranks stored recipes against a pantry.
type RecommendationService struct {
	Recipes *RecipeService
	Scorer  *Scorer
	Cache   *CacheService
}

// NewRecommendationService wires a RecommendationService.
func NewRecommendationService(recipes *RecipeService, scorer *Scorer, cache *CacheService) *RecommendationService {
	return &RecommendationService{Recipes: recipes, Scorer: scorer, Cache: cache}
}

// Recommend scores candidate recipes against the pantry, applies the
// filters, and returns up to the limit best matches, best first. Results
// are cached for a day under the query (or, absent one, the sorted pantry).
func (s *RecommendationService) Recommend(ctx context.Context, pantryItems []string, query string, filters Filters) ([]models.ScoredRecipe, error) {
	if len(pantryItems) == 0 {
		return []models.ScoredRecipe{}, nil
	}

	cacheKey := recommendationCacheKey(pantryItems, query)
	if cached, ok := s.Cache.Get(cacheKey); ok {
		logger.Get().Info("recommendation cache hit", zap.String("key", cacheKey))
		return applyFilters(cached, filters), nil
	}

	pantryEmbedding := s.Scorer.PantryEmbedding(ctx, pantryItems)

	candidates, err := s.gatherCandidates(ctx, pantryEmbedding, query, filters.Cuisine)
	if err != nil {
		return nil, err
	}

	opts := DefaultScoreOptions()
	opts.UseEmbeddings = pantryEmbedding != nil

	scored := make([]models.ScoredRecipe, 0, len(candidates))
	for i := range candidates {
		scored = append(scored, s.Scorer.Score(ctx, pantryItems, pantryEmbedding, &candidates[i], opts))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	s.Cache.Put(cacheKey, models.ScoredRecipes(scored), DefaultCacheTTL)
	return applyFilters(scored, filters), nil
}

// gatherCandidates collects stored recipes worth scoring: vector-similar
// ones when a pantry embedding exists, the plain listing otherwise, and a
// crawl top-up when a query is present but storage has nothing.
func (s *RecommendationService) gatherCandidates(ctx context.Context, pantryEmbedding []float32, query, cuisine string) ([]models.Recipe, error) {
	if pantryEmbedding != nil {
		similar, err := s.Recipes.Vectors.FindSimilar(pantryEmbedding, similarityThreshold, maxCandidates)
		if err != nil {
			logger.Get().Warn("vector candidate search failed", zap.Error(err))
		} else if len(similar) > 0 {
			return similar, nil
		}
	}

	listed, err := s.Recipes.Recipes.ListRecipes(cuisine, maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(listed) > 0 || query == "" {
		return listed, nil
	}

	// Nothing stored yet; seed from a live crawl on the query.
	return s.Recipes.Search(ctx, query)
}

// PersonalizeFeed rescores recommendations with a flat boost for the user's
// preferred cuisines and re-sorts.
func (s *RecommendationService) PersonalizeFeed(scored []models.ScoredRecipe, preferredCuisines []string) []models.ScoredRecipe {
	if len(preferredCuisines) == 0 {
		return scored
	}
	preferred := make(map[string]bool, len(preferredCuisines))
	for _, c := range preferredCuisines {
		preferred[strings.ToLower(c)] = true
	}

	boosted := make([]models.ScoredRecipe, len(scored))
	copy(boosted, scored)
	for i := range boosted {
		if preferred[strings.ToLower(boosted[i].Cuisine)] {
			boosted[i].Score = clamp01(boosted[i].Score + cuisineBoost)
		}
	}
	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Score > boosted[j].Score
	})
	return boosted
}

// ShoppingListResult is the outcome of a shopping list request: the recipe's
// uncovered ingredients plus how confident the match is overall.
type ShoppingListResult struct {
	RecipeTitle string              `json:"recipe_title"`
	Missing     []models.Ingredient `json:"missing"`
	Confidence  string              `json:"confidence"`
}

// ShoppingList returns the recipe's ingredients that the pantry does not
// cover, in recipe order, together with a "NN.N% match" confidence derived
// from the lexical score.
func (s *RecommendationService) ShoppingList(recipeID uuid.UUID, pantryItems []string) (*ShoppingListResult, error) {
	recipe, err := s.Recipes.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}

	opts := DefaultScoreOptions()
	opts.UseEmbeddings = false
	scored := s.Scorer.Score(context.Background(), pantryItems, nil, recipe, opts)

	missing := make([]models.Ingredient, 0, len(scored.MissingIngredients))
	for _, ing := range recipe.Ingredients {
		for _, name := range scored.MissingIngredients {
			if ing.Name == name {
				missing = append(missing, ing)
				break
			}
		}
	}

	return &ShoppingListResult{
		RecipeTitle: recipe.Title,
		Missing:     missing,
		Confidence:  fmt.Sprintf("%.1f%% match", scored.MatchPercentage),
	}, nil
}

// GenerateVariation asks the text provider for a pantry-friendly variation
// of a stored recipe and stores the result as a generated recipe.
func (s *RecommendationService) GenerateVariation(ctx context.Context, recipeID uuid.UUID, pantryItems []string) (*models.Recipe, error) {
	base, err := s.Recipes.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(base.Ingredients))
	for _, ing := range base.Ingredients {
		names = append(names, ing.Name)
	}

	result, err := s.Recipes.Text.GenerateVariation(ctx, ai.VariationRequest{
		Title:       base.Title,
		Ingredients: strings.Join(names, ", "),
		PantryItems: pantryItems,
	})
	if err != nil {
		return nil, err
	}
	if result.Title == "" || len(result.Ingredients) == 0 {
		return nil, errors.New("variation response missing title or ingredients")
	}

	ingredients := make(models.Ingredients, 0, len(result.Ingredients))
	for _, ing := range result.Ingredients {
		ingredients = append(ingredients, models.Ingredient{
			Name:     ing.Name,
			Unit:     ing.Unit,
			Quantity: ing.Quantity,
		})
	}

	variation := &models.Recipe{
		Title:       result.Title,
		Ingredients: ingredients,
		ImageURL:    base.ImageURL,
		SourceURL:   fmt.Sprintf("variation-of-%s", base.ID),
		Source:      "llm-generated",
		Cuisine:     base.Cuisine,
	}
	return s.Recipes.StoreRecipe(ctx, variation)
}

// applyFilters runs the filter pipeline over sorted scored recipes and caps
// the result. Order is preserved.
func applyFilters(scored []models.ScoredRecipe, filters Filters) []models.ScoredRecipe {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	out := make([]models.ScoredRecipe, 0, limit)
	for _, sr := range scored {
		if filters.MaxMissing != nil && len(sr.MissingIngredients) > *filters.MaxMissing {
			continue
		}
		if filters.Cuisine != "" && !strings.EqualFold(sr.Cuisine, filters.Cuisine) {
			continue
		}
		if filters.MaxTime != nil {
			total := util.ParseTimeToMinutes(sr.PrepTime) + util.ParseTimeToMinutes(sr.CookTime)
			if total == 0 || total > *filters.MaxTime {
				continue
			}
		}
		out = append(out, sr)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// recommendationCacheKey derives the cache key for one recommendation
// request: the query verbatim, or the sorted pantry when there is none.
func recommendationCacheKey(pantryItems []string, query string) string {
	if query != "" {
		return query
	}
	sorted := make([]string, len(pantryItems))
	copy(sorted, pantryItems)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
