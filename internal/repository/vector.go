package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VectorRepository handles pgvector similarity search operations.
type VectorRepository struct {
	DB *gorm.DB
}

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(db *gorm.DB) *VectorRepository {
	return &VectorRepository{DB: db}
}

// UpsertEmbedding stores the embedding for a recipe, replacing any prior one.
func (r *VectorRepository) UpsertEmbedding(embedding *models.RecipeEmbedding) error {
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "ingredients_text"}),
	}).Create(embedding).Error
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the stored embedding for a recipe.
func (r *VectorRepository) GetEmbedding(recipeID uuid.UUID) (*models.RecipeEmbedding, error) {
	var embedding models.RecipeEmbedding

	err := r.DB.Where("recipe_id = ?", recipeID).First(&embedding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Embedding not found"}
		}
		return nil, fmt.Errorf("failed to retrieve embedding: %w", err)
	}

	return &embedding, nil
}

// FindSimilar returns recipes whose stored ingredient embeddings have cosine
// similarity above threshold with the given vector, closest first.
func (r *VectorRepository) FindSimilar(embedding []float32, threshold float64, limit int) ([]models.Recipe, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	var recipes []models.Recipe
	err := r.DB.Raw(`
		SELECT r.* FROM recipes r
		JOIN recipe_embeddings e ON e.recipe_id = r.id
		WHERE 1 - (e.embedding <=> ?) > ?
		ORDER BY e.embedding <=> ?
		LIMIT ?`, vec, threshold, vec, limit).
		Scan(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find similar recipes: %w", err)
	}

	return recipes, nil
}
