package ai

import "context"

// TextProvider handles all text/reasoning tasks (Claude).
type TextProvider interface {
	// ExtractIngredients pulls a structured ingredient list out of raw page
	// HTML. Used as the crawler's fallback when selector-based extraction
	// comes up empty.
	ExtractIngredients(ctx context.Context, html string) ([]IngredientResult, error)
	// ClassifyCuisine returns a one-word cuisine label for a recipe.
	ClassifyCuisine(ctx context.Context, title string, ingredients string) (string, error)
	// GenerateVariation creates a pantry-oriented variation of a recipe.
	GenerateVariation(ctx context.Context, req VariationRequest) (*VariationResult, error)
}

// EmbeddingProvider handles vector embeddings.
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IngredientResult is a single extracted ingredient.
type IngredientResult struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// VariationRequest holds parameters for generating a recipe variation.
type VariationRequest struct {
	Title       string
	Ingredients string // formatted as "qty unit name, qty unit name, ..."
	PantryItems []string
}

// VariationResult is the structured output of a variation call.
type VariationResult struct {
	Title        string             `json:"title"`
	Ingredients  []IngredientResult `json:"ingredients"`
	Instructions []string           `json:"instructions"`
}
