package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pantrypilot/pantrypilot-api/internal/service"
	"go.uber.org/zap"
)

// RecipeHandler is the handler for recipe-related requests.
type RecipeHandler struct {
	Service *service.RecipeService
}

// NewRecipeHandler is the constructor function for initializing a new RecipeHandler.
func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{Service: recipeService}
}

// searchRequest is the body for a recipe search.
type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// SearchRecipes finds recipes for a free-text query, crawling the source
// site on a cache miss.
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	recipes, err := h.Service.Search(c.Request.Context(), query)
	if err != nil {
		logger.Get().Error("recipe search failed", zap.String("query", query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"recipes": recipes,
		"total":   len(recipes),
	})
}

// GetRecipe returns a stored recipe by ID.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeIDStr := c.Param("recipe_id")
	recipeID, err := parseUUIDParam(recipeIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	recipe, err := h.Service.GetRecipe(recipeID)
	if err != nil {
		logger.Get().Error("failed to get recipe", zap.String("recipe_id", recipeIDStr), zap.Error(err))
		switch e := err.(type) {
		case repository.NotFoundError:
			c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": e.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}
