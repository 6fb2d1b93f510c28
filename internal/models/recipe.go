package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ingredient is a single ingredient as it appears on the source page.
// Quantity and unit are free text; the core never parses them numerically.
type Ingredient struct {
	Name     string `json:"name"`
	Unit     string `json:"unit,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

// Ingredients is a slice of Ingredient.
// This is a workaround for GORM to embed a slice of structs into a JSONB field.
type Ingredients []Ingredient

// Scan is a GORM hook that scans jsonb into Ingredients.
func (j *Ingredients) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := Ingredients{}
	err := json.Unmarshal(bytes, &result)
	*j = result

	return err
}

// Value is a GORM hook that returns json value of Ingredients.
func (j Ingredients) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Recipe is the model for a crawled recipe. SourceURL is unique per source
// and is the upsert key for re-crawls.
type Recipe struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string      `json:"title"`
	Ingredients Ingredients `gorm:"type:jsonb" json:"ingredients"`
	PrepTime    string      `json:"prep_time,omitempty"`
	CookTime    string      `json:"cook_time,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	SourceURL   string      `gorm:"uniqueIndex;not null" json:"source_url"`
	Source      string      `gorm:"default:allrecipes" json:"source"`
	Cuisine     string      `json:"cuisine,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"last_updated"`
}

// ScoredRecipe is a recipe annotated with how well it matches a pantry.
// Score is in [0,1]; MatchPercentage is Score*100 rounded to one decimal.
// MissingIngredients preserves recipe order.
type ScoredRecipe struct {
	Recipe
	Score               float64  `json:"score"`
	MatchPercentage     float64  `json:"match_percentage"`
	MissingIngredients  []string `json:"missing_ingredients"`
	ExactMatches        int      `json:"exact_matches"`
	FuzzyMatches        int      `json:"fuzzy_matches"`
	EmbeddingSimilarity *float64 `json:"embedding_similarity,omitempty"`
}

// ScoredRecipes is a slice of ScoredRecipe stored as a JSONB cache payload.
type ScoredRecipes []ScoredRecipe

// Scan is a GORM hook that scans jsonb into ScoredRecipes.
func (j *ScoredRecipes) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := ScoredRecipes{}
	err := json.Unmarshal(bytes, &result)
	*j = result

	return err
}

// Value is a GORM hook that returns json value of ScoredRecipes.
func (j ScoredRecipes) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Recipes extracts the plain recipes from a scored list. Used by the search
// path, which caches unscored crawl results in the same table.
func (j ScoredRecipes) Recipes() []Recipe {
	recipes := make([]Recipe, len(j))
	for i, s := range j {
		recipes[i] = s.Recipe
	}
	return recipes
}

// WrapRecipes lifts plain recipes into a ScoredRecipes payload with zero
// score fields, for caching unscored search results.
func WrapRecipes(recipes []Recipe) ScoredRecipes {
	scored := make(ScoredRecipes, len(recipes))
	for i, r := range recipes {
		scored[i] = ScoredRecipe{Recipe: r}
	}
	return scored
}
