package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
)

// --- MockTextProvider ---

// MockTextProvider is a mock implementation of ai.TextProvider.
type MockTextProvider struct {
	ExtractIngredientsFunc func(ctx context.Context, html string) ([]ai.IngredientResult, error)
	ClassifyCuisineFunc    func(ctx context.Context, title, ingredients string) (string, error)
	GenerateVariationFunc  func(ctx context.Context, req ai.VariationRequest) (*ai.VariationResult, error)
}

func (m *MockTextProvider) ExtractIngredients(ctx context.Context, html string) ([]ai.IngredientResult, error) {
	if m.ExtractIngredientsFunc != nil {
		return m.ExtractIngredientsFunc(ctx, html)
	}
	return nil, fmt.Errorf("ExtractIngredients not configured")
}

func (m *MockTextProvider) ClassifyCuisine(ctx context.Context, title, ingredients string) (string, error) {
	if m.ClassifyCuisineFunc != nil {
		return m.ClassifyCuisineFunc(ctx, title, ingredients)
	}
	return "", fmt.Errorf("ClassifyCuisine not configured")
}

func (m *MockTextProvider) GenerateVariation(ctx context.Context, req ai.VariationRequest) (*ai.VariationResult, error) {
	if m.GenerateVariationFunc != nil {
		return m.GenerateVariationFunc(ctx, req)
	}
	return nil, fmt.Errorf("GenerateVariation not configured")
}

// --- MockEmbeddingProvider ---

// MockEmbeddingProvider is a mock implementation of ai.EmbeddingProvider.
type MockEmbeddingProvider struct {
	GenerateEmbeddingFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.GenerateEmbeddingFunc != nil {
		return m.GenerateEmbeddingFunc(ctx, text)
	}
	return nil, fmt.Errorf("GenerateEmbedding not configured")
}

// --- MockRecipeRepo ---

// MockRecipeRepo is a mock implementation of repository.RecipeRepo.
type MockRecipeRepo struct {
	GetRecipeByIDFunc        func(recipeID uuid.UUID) (*models.Recipe, error)
	GetRecipeBySourceURLFunc func(sourceURL string) (*models.Recipe, error)
	UpsertRecipeFunc         func(recipe *models.Recipe) error
	ListRecipesFunc          func(cuisine string, limit int) ([]models.Recipe, error)
	ListOutdatedRecipesFunc  func(olderThan time.Time) ([]models.Recipe, error)
	UpdateRecipeCuisineFunc  func(recipeID uuid.UUID, cuisine string) error
	UpdateRecipeImageURLFunc func(recipeID uuid.UUID, imageURL string) error
}

func (m *MockRecipeRepo) GetRecipeByID(recipeID uuid.UUID) (*models.Recipe, error) {
	if m.GetRecipeByIDFunc != nil {
		return m.GetRecipeByIDFunc(recipeID)
	}
	return nil, fmt.Errorf("GetRecipeByID not configured")
}

func (m *MockRecipeRepo) GetRecipeBySourceURL(sourceURL string) (*models.Recipe, error) {
	if m.GetRecipeBySourceURLFunc != nil {
		return m.GetRecipeBySourceURLFunc(sourceURL)
	}
	return nil, fmt.Errorf("GetRecipeBySourceURL not configured")
}

func (m *MockRecipeRepo) UpsertRecipe(recipe *models.Recipe) error {
	if m.UpsertRecipeFunc != nil {
		return m.UpsertRecipeFunc(recipe)
	}
	return fmt.Errorf("UpsertRecipe not configured")
}

func (m *MockRecipeRepo) ListRecipes(cuisine string, limit int) ([]models.Recipe, error) {
	if m.ListRecipesFunc != nil {
		return m.ListRecipesFunc(cuisine, limit)
	}
	return nil, fmt.Errorf("ListRecipes not configured")
}

func (m *MockRecipeRepo) ListOutdatedRecipes(olderThan time.Time) ([]models.Recipe, error) {
	if m.ListOutdatedRecipesFunc != nil {
		return m.ListOutdatedRecipesFunc(olderThan)
	}
	return nil, fmt.Errorf("ListOutdatedRecipes not configured")
}

func (m *MockRecipeRepo) UpdateRecipeCuisine(recipeID uuid.UUID, cuisine string) error {
	if m.UpdateRecipeCuisineFunc != nil {
		return m.UpdateRecipeCuisineFunc(recipeID, cuisine)
	}
	return fmt.Errorf("UpdateRecipeCuisine not configured")
}

func (m *MockRecipeRepo) UpdateRecipeImageURL(recipeID uuid.UUID, imageURL string) error {
	if m.UpdateRecipeImageURLFunc != nil {
		return m.UpdateRecipeImageURLFunc(recipeID, imageURL)
	}
	return fmt.Errorf("UpdateRecipeImageURL not configured")
}

// --- MockVectorRepo ---

// MockVectorRepo is a mock implementation of repository.VectorRepo.
type MockVectorRepo struct {
	UpsertEmbeddingFunc func(embedding *models.RecipeEmbedding) error
	GetEmbeddingFunc    func(recipeID uuid.UUID) (*models.RecipeEmbedding, error)
	FindSimilarFunc     func(embedding []float32, threshold float64, limit int) ([]models.Recipe, error)
}

func (m *MockVectorRepo) UpsertEmbedding(embedding *models.RecipeEmbedding) error {
	if m.UpsertEmbeddingFunc != nil {
		return m.UpsertEmbeddingFunc(embedding)
	}
	return fmt.Errorf("UpsertEmbedding not configured")
}

func (m *MockVectorRepo) GetEmbedding(recipeID uuid.UUID) (*models.RecipeEmbedding, error) {
	if m.GetEmbeddingFunc != nil {
		return m.GetEmbeddingFunc(recipeID)
	}
	return nil, fmt.Errorf("GetEmbedding not configured")
}

func (m *MockVectorRepo) FindSimilar(embedding []float32, threshold float64, limit int) ([]models.Recipe, error) {
	if m.FindSimilarFunc != nil {
		return m.FindSimilarFunc(embedding, threshold, limit)
	}
	return nil, fmt.Errorf("FindSimilar not configured")
}

// --- MockCacheRepo ---

// MockCacheRepo is a mock implementation of repository.CacheRepo.
type MockCacheRepo struct {
	GetByHashFunc     func(queryHash string) (*models.RecipeCache, error)
	UpsertFunc        func(entry *models.RecipeCache) error
	DeleteExpiredFunc func() (int64, error)
}

func (m *MockCacheRepo) GetByHash(queryHash string) (*models.RecipeCache, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(queryHash)
	}
	return nil, fmt.Errorf("GetByHash not configured")
}

func (m *MockCacheRepo) Upsert(entry *models.RecipeCache) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(entry)
	}
	return fmt.Errorf("Upsert not configured")
}

func (m *MockCacheRepo) DeleteExpired() (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc()
	}
	return 0, fmt.Errorf("DeleteExpired not configured")
}
