package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pantrypilot/pantrypilot-api/internal/service"
	"go.uber.org/zap"
)

// RecommendationHandler is the handler for recommendation-related requests.
type RecommendationHandler struct {
	Service *service.RecommendationService
}

// NewRecommendationHandler is the constructor function for initializing a new RecommendationHandler.
func NewRecommendationHandler(recService *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{Service: recService}
}

// recommendRequest is the body for a recommendation request.
type recommendRequest struct {
	PantryItems       []string `json:"pantry_items" binding:"required"`
	Query             string   `json:"query"`
	MaxMissing        *int     `json:"max_missing"`
	Cuisine           string   `json:"cuisine"`
	MaxTime           *int     `json:"max_time"`
	Limit             int      `json:"limit"`
	PreferredCuisines []string `json:"preferred_cuisines"`
}

// Recommend ranks recipes against the caller's pantry.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pantry_items is required"})
		return
	}

	filters := service.Filters{
		MaxMissing: req.MaxMissing,
		Cuisine:    req.Cuisine,
		MaxTime:    req.MaxTime,
		Limit:      req.Limit,
	}

	recommendations, err := h.Service.Recommend(c.Request.Context(), req.PantryItems, req.Query, filters)
	if err != nil {
		logger.Get().Error("recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed"})
		return
	}

	if len(req.PreferredCuisines) > 0 {
		recommendations = h.Service.PersonalizeFeed(recommendations, req.PreferredCuisines)
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": recommendations,
		"total":           len(recommendations),
	})
}

// pantryRequest carries just a pantry, for per-recipe operations.
type pantryRequest struct {
	PantryItems []string `json:"pantry_items" binding:"required"`
}

// ShoppingList returns the ingredients of a recipe not covered by the pantry.
func (h *RecommendationHandler) ShoppingList(c *gin.Context) {
	recipeIDStr := c.Param("recipe_id")
	recipeID, err := parseUUIDParam(recipeIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	var req pantryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pantry_items is required"})
		return
	}

	result, err := h.Service.ShoppingList(recipeID, req.PantryItems)
	if err != nil {
		logger.Get().Error("shopping list failed", zap.String("recipe_id", recipeIDStr), zap.Error(err))
		switch e := err.(type) {
		case repository.NotFoundError:
			c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "shopping list failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe_id":     recipeID,
		"recipe_title":  result.RecipeTitle,
		"shopping_list": result.Missing,
		"confidence":    result.Confidence,
	})
}

// GenerateVariation produces a pantry-friendly variation of a stored recipe.
func (h *RecommendationHandler) GenerateVariation(c *gin.Context) {
	recipeIDStr := c.Param("recipe_id")
	recipeID, err := parseUUIDParam(recipeIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	var req pantryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pantry_items is required"})
		return
	}

	variation, err := h.Service.GenerateVariation(c.Request.Context(), recipeID, req.PantryItems)
	if err != nil {
		logger.Get().Error("variation generation failed", zap.String("recipe_id", recipeIDStr), zap.Error(err))
		switch e := err.(type) {
		case repository.NotFoundError:
			c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "variation generation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": variation})
}
