package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/crawler"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const (
	// defaultSearchResults caps how many candidates a single search crawls.
	defaultSearchResults = 10

	// refreshAge is how old a stored recipe gets before the daily refresh
	// re-scrapes it.
	refreshAge = 7 * 24 * time.Hour
)

// ImageStore mirrors recipe images to durable storage and returns the new
// public URL.
type ImageStore interface {
	UploadRecipeImage(ctx context.Context, recipeID uuid.UUID, sourceURL string) (string, error)
}

// RecipeService owns the search-crawl-store pipeline and recipe enrichment.
type RecipeService struct {
	Recipes    repository.RecipeRepo
	Vectors    repository.VectorRepo
	Cache      *CacheService
	Crawler    *crawler.RecipeCrawler
	Text       ai.TextProvider
	Embeddings ai.EmbeddingProvider
	Images     ImageStore
}

// NewRecipeService wires a RecipeService. Images may be nil when no image
// storage is configured.
func NewRecipeService(
	recipes repository.RecipeRepo,
	vectors repository.VectorRepo,
	cache *CacheService,
	crawl *crawler.RecipeCrawler,
	text ai.TextProvider,
	embeddings ai.EmbeddingProvider,
	images ImageStore,
) *RecipeService {
	return &RecipeService{
		Recipes:    recipes,
		Vectors:    vectors,
		Cache:      cache,
		Crawler:    crawl,
		Text:       text,
		Embeddings: embeddings,
		Images:     images,
	}
}

// Search returns recipes for a free-text query, serving from cache when a
// live entry exists and otherwise crawling, persisting, and caching the
// fresh results for a day.
func (s *RecipeService) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	if cached, ok := s.Cache.Get(query); ok {
		logger.Get().Info("search cache hit", zap.String("query", query))
		return cached.Recipes(), nil
	}

	crawled := s.Crawler.Crawl(ctx, query, defaultSearchResults)

	stored := make([]models.Recipe, 0, len(crawled))
	for i := range crawled {
		recipe, err := s.StoreRecipe(ctx, &crawled[i])
		if err != nil {
			logger.Get().Warn("failed to store crawled recipe",
				zap.String("source_url", crawled[i].SourceURL),
				zap.Error(err),
			)
			continue
		}
		stored = append(stored, *recipe)
	}

	s.Cache.Put(query, models.WrapRecipes(stored), DefaultCacheTTL)
	return stored, nil
}

// StoreRecipe upserts a recipe by source URL and enriches the stored row:
// ingredient embedding, cuisine label when missing, and a mirrored image
// when an image store is configured. Enrichment failures degrade; only the
// upsert itself can fail the call.
func (s *RecipeService) StoreRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	if err := s.Recipes.UpsertRecipe(recipe); err != nil {
		return nil, err
	}

	s.embedRecipe(ctx, recipe)

	if recipe.Cuisine == "" {
		s.classifyCuisine(ctx, recipe)
	}

	if s.Images != nil && recipe.ImageURL != "" && !strings.Contains(recipe.ImageURL, "amazonaws.com") {
		s.mirrorImage(ctx, recipe)
	}

	return recipe, nil
}

// GetRecipe fetches one stored recipe by ID.
func (s *RecipeService) GetRecipe(recipeID uuid.UUID) (*models.Recipe, error) {
	return s.Recipes.GetRecipeByID(recipeID)
}

// RefreshOutdated re-scrapes recipes whose stored copy is older than a week
// and returns how many were refreshed.
func (s *RecipeService) RefreshOutdated(ctx context.Context) int {
	outdated, err := s.Recipes.ListOutdatedRecipes(time.Now().Add(-refreshAge))
	if err != nil {
		logger.Get().Error("failed to list outdated recipes", zap.Error(err))
		return 0
	}
	if len(outdated) == 0 {
		return 0
	}

	logger.Get().Info("refreshing outdated recipes", zap.Int("count", len(outdated)))

	refreshed := 0
	for i := range outdated {
		if err := s.refreshRecipe(ctx, &outdated[i]); err != nil {
			logger.Get().Warn("recipe refresh failed",
				zap.String("source_url", outdated[i].SourceURL),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}
	return refreshed
}

// refreshRecipe re-crawls one stored recipe page and stores the result.
func (s *RecipeService) refreshRecipe(ctx context.Context, stale *models.Recipe) error {
	page, err := s.Crawler.Browser.NewPage()
	if err != nil {
		return err
	}
	defer page.Close()

	fresh, err := s.Crawler.ScrapePage(ctx, page, stale.SourceURL)
	if err != nil {
		return err
	}
	fresh.Cuisine = stale.Cuisine
	_, err = s.StoreRecipe(ctx, fresh)
	return err
}

// embedRecipe generates and stores the ingredient embedding for a recipe.
func (s *RecipeService) embedRecipe(ctx context.Context, recipe *models.Recipe) {
	text := ingredientsText(recipe)
	emb, err := s.Embeddings.GenerateEmbedding(ctx, text)
	if err != nil {
		logger.Get().Warn("recipe embedding failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return
	}
	row := &models.RecipeEmbedding{
		RecipeID:        recipe.ID,
		Embedding:       pgvector.NewVector(emb),
		IngredientsText: text,
	}
	if err := s.Vectors.UpsertEmbedding(row); err != nil {
		logger.Get().Warn("embedding upsert failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
	}
}

// classifyCuisine labels the recipe's cuisine via the text provider and
// persists the label. Failure leaves the cuisine empty.
func (s *RecipeService) classifyCuisine(ctx context.Context, recipe *models.Recipe) {
	names := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		names = append(names, ing.Name)
	}
	cuisine, err := s.Text.ClassifyCuisine(ctx, recipe.Title, strings.Join(names, ", "))
	if err != nil || cuisine == "" {
		logger.Get().Warn("cuisine classification failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return
	}
	if err := s.Recipes.UpdateRecipeCuisine(recipe.ID, cuisine); err != nil {
		logger.Get().Warn("cuisine update failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return
	}
	recipe.Cuisine = cuisine
}

// mirrorImage copies the recipe image into object storage and rewrites the
// stored URL. Best effort.
func (s *RecipeService) mirrorImage(ctx context.Context, recipe *models.Recipe) {
	mirrored, err := s.Images.UploadRecipeImage(ctx, recipe.ID, recipe.ImageURL)
	if err != nil {
		logger.Get().Warn("image mirror failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return
	}
	if err := s.Recipes.UpdateRecipeImageURL(recipe.ID, mirrored); err != nil {
		logger.Get().Warn("image URL update failed",
			zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return
	}
	recipe.ImageURL = mirrored
}

// ingredientsText flattens a recipe into the text that gets embedded.
func ingredientsText(recipe *models.Recipe) string {
	parts := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		fields := make([]string, 0, 3)
		for _, f := range []string{ing.Quantity, ing.Unit, ing.Name} {
			if f != "" {
				fields = append(fields, f)
			}
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return fmt.Sprintf("%s %s", recipe.Title, strings.Join(parts, ", "))
}
