package models

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the vector size produced by the embedding provider
// (OpenAI text-embedding-3-small).
const EmbeddingDimensions = 1536

// RecipeEmbedding holds the ingredient-text embedding for one recipe.
// One-to-one with Recipe; created lazily after the recipe is first persisted.
type RecipeEmbedding struct {
	RecipeID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	Embedding       pgvector.Vector `gorm:"type:vector(1536)" json:"embedding"`
	IngredientsText string          `json:"ingredients_text"`
}
