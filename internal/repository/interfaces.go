package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
)

// RecipeRepo is the interface for recipe persistence.
type RecipeRepo interface {
	GetRecipeByID(recipeID uuid.UUID) (*models.Recipe, error)
	GetRecipeBySourceURL(sourceURL string) (*models.Recipe, error)
	UpsertRecipe(recipe *models.Recipe) error
	ListRecipes(cuisine string, limit int) ([]models.Recipe, error)
	ListOutdatedRecipes(olderThan time.Time) ([]models.Recipe, error)
	UpdateRecipeCuisine(recipeID uuid.UUID, cuisine string) error
	UpdateRecipeImageURL(recipeID uuid.UUID, imageURL string) error
}

// VectorRepo is the interface for embedding persistence and similarity search.
type VectorRepo interface {
	UpsertEmbedding(embedding *models.RecipeEmbedding) error
	GetEmbedding(recipeID uuid.UUID) (*models.RecipeEmbedding, error)
	FindSimilar(embedding []float32, threshold float64, limit int) ([]models.Recipe, error)
}

// CacheRepo is the interface for the query result cache.
type CacheRepo interface {
	GetByHash(queryHash string) (*models.RecipeCache, error)
	Upsert(entry *models.RecipeCache) error
	DeleteExpired() (int64, error)
}
