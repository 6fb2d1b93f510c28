package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
)

// TestRecipe creates a test Recipe with realistic fields.
func TestRecipe() *models.Recipe {
	return &models.Recipe{
		ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Title: "Classic Margherita Pizza",
		Ingredients: models.Ingredients{
			{Name: "pizza dough", Quantity: "1", Unit: "pound"},
			{Name: "tomato sauce", Quantity: "1/2", Unit: "cup"},
			{Name: "fresh mozzarella", Quantity: "8", Unit: "ounces"},
			{Name: "fresh basil", Quantity: "10", Unit: "leaves"},
			{Name: "olive oil", Quantity: "2", Unit: "tablespoons"},
		},
		PrepTime:  "20 mins",
		CookTime:  "15 mins",
		ImageURL:  "https://example.com/margherita.jpg",
		SourceURL: "https://www.allrecipes.com/recipe/margherita-pizza",
		Source:    "allrecipes",
		Cuisine:   "Italian",
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

// TestScoredRecipe wraps TestRecipe with match evidence.
func TestScoredRecipe(score float64) models.ScoredRecipe {
	return models.ScoredRecipe{
		Recipe:             *TestRecipe(),
		Score:              score,
		MatchPercentage:    score * 100,
		MissingIngredients: []string{},
		ExactMatches:       5,
	}
}

// TestRecipePageHTML is a stripped-down recipe detail page carrying the
// selectors extraction looks for.
const TestRecipePageHTML = `<html><body>
<h1 class="article-heading">Classic Margherita Pizza</h1>
<div class="mm-recipes-details__item">
  <div class="mm-recipes-details__label">Prep Time:</div>
  <div class="mm-recipes-details__value">20 mins</div>
</div>
<div class="mm-recipes-details__item">
  <div class="mm-recipes-details__label">Cook Time:</div>
  <div class="mm-recipes-details__value">15 mins</div>
</div>
<ul>
<li class="mm-recipes-structured-ingredients__list-item">
  <span data-ingredient-quantity="true">1</span>
  <span data-ingredient-unit="true">pound</span>
  <span data-ingredient-name="true">pizza dough</span>
</li>
<li class="mm-recipes-structured-ingredients__list-item">
  <span data-ingredient-quantity="true">8</span>
  <span data-ingredient-unit="true">ounces</span>
  <span data-ingredient-name="true">fresh mozzarella</span>
</li>
</ul>
<img class="primary-image__image" src="https://example.com/margherita.jpg"/>
</body></html>`

// TestSearchPageHTML is a stripped-down search result page with three cards,
// one of which has a malformed href.
const TestSearchPageHTML = `<html><body>
<a class="card" href="https://www.allrecipes.com/recipe/one"></a>
<a class="card" href="/recipe/relative-link"></a>
<a class="card" href="https://www.allrecipes.com/recipe/two"></a>
</body></html>`
