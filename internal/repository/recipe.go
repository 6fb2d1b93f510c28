package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeRepository is a repository for interacting with recipes.
type RecipeRepository struct {
	DB *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{DB: db}
}

// GetRecipeByID retrieves a recipe by its ID.
func (r *RecipeRepository) GetRecipeByID(recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe

	err := r.DB.Where("id = ?", recipeID).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Recipe not found"}
		}
		return nil, fmt.Errorf("failed to retrieve recipe: %w", err)
	}

	return &recipe, nil
}

// GetRecipeBySourceURL retrieves a recipe by its unique source URL.
func (r *RecipeRepository) GetRecipeBySourceURL(sourceURL string) (*models.Recipe, error) {
	var recipe models.Recipe

	err := r.DB.Where("source_url = ?", sourceURL).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Recipe not found"}
		}
		return nil, fmt.Errorf("failed to retrieve recipe: %w", err)
	}

	return &recipe, nil
}

// UpsertRecipe inserts the recipe or, when a row with the same source URL
// already exists, updates its crawled fields. The recipe's ID is populated
// from the stored row either way.
func (r *RecipeRepository) UpsertRecipe(recipe *models.Recipe) error {
	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "ingredients", "prep_time", "cook_time", "image_url", "updated_at",
		}),
	}).Create(recipe).Error
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}

	// On conflict the returned ID is the inserted attempt's, not the stored
	// row's. Re-read by source URL so callers always hold the real ID.
	if stored, err := r.GetRecipeBySourceURL(recipe.SourceURL); err == nil {
		recipe.ID = stored.ID
		recipe.Cuisine = stored.Cuisine
		recipe.CreatedAt = stored.CreatedAt
	}

	return nil
}

// ListRecipes returns up to limit recipes, optionally filtered by cuisine.
func (r *RecipeRepository) ListRecipes(cuisine string, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe

	query := r.DB.Limit(limit)
	if cuisine != "" {
		query = query.Where("cuisine = ?", cuisine)
	}

	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	return recipes, nil
}

// ListOutdatedRecipes returns recipes last updated before the given time.
func (r *RecipeRepository) ListOutdatedRecipes(olderThan time.Time) ([]models.Recipe, error) {
	var recipes []models.Recipe

	err := r.DB.Where("updated_at < ?", olderThan).Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list outdated recipes: %w", err)
	}

	return recipes, nil
}

// UpdateRecipeCuisine backfills the cuisine label of a recipe.
func (r *RecipeRepository) UpdateRecipeCuisine(recipeID uuid.UUID, cuisine string) error {
	err := r.DB.Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("cuisine", cuisine).Error
	if err != nil {
		return fmt.Errorf("failed to update recipe cuisine: %w", err)
	}
	return nil
}

// UpdateRecipeImageURL updates the image URL of a recipe.
func (r *RecipeRepository) UpdateRecipeImageURL(recipeID uuid.UUID, imageURL string) error {
	err := r.DB.Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("image_url", imageURL).Error
	if err != nil {
		return fmt.Errorf("failed to update recipe image URL: %w", err)
	}
	return nil
}
