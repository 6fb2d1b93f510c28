package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/config"
	"github.com/pantrypilot/pantrypilot-api/internal/crawler"
	"github.com/pantrypilot/pantrypilot-api/internal/handlers"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/middleware"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pantrypilot/pantrypilot-api/internal/s3"
	"github.com/pantrypilot/pantrypilot-api/internal/service"
	"gorm.io/gorm"
)

// Services bundles the wired service layer so background jobs can share the
// exact instances the HTTP handlers use.
type Services struct {
	Cache          *service.CacheService
	Recipe         *service.RecipeService
	Recommendation *service.RecommendationService
}

// SetupRouter sets up the Gin router and wires the service graph.
func SetupRouter(cfg *config.Config, database *gorm.DB) (*gin.Engine, *Services) {
	// Create default Gin router
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOriginList()
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// AI provider setup
	textProvider := ai.NewAnthropicProvider(cfg.EnvVars.AnthropicAPIKey, cfg.Prompts)
	embeddingProvider := ai.NewEmbeddingProvider(cfg.EnvVars.OpenAIAPIKey)

	// Crawler setup
	browser := crawler.NewChromeBrowser(crawler.ProxyConfig{
		Host:     cfg.EnvVars.ProxyHost,
		Port:     cfg.EnvVars.ProxyPort,
		Username: cfg.EnvVars.ProxyUsername,
		Password: cfg.EnvVars.ProxyPassword,
	})
	recipeCrawler := crawler.NewRecipeCrawler(browser, textProvider)

	// Repository and service setup
	recipeRepo := repository.NewRecipeRepository(database)
	vectorRepo := repository.NewVectorRepository(database)
	cacheRepo := repository.NewCacheRepository(database)

	cacheService := service.NewCacheService(cacheRepo)
	imageStore := s3.NewImageStore(cfg)
	var images service.ImageStore
	if imageStore != nil {
		images = imageStore
	}
	recipeService := service.NewRecipeService(recipeRepo, vectorRepo, cacheService, recipeCrawler, textProvider, embeddingProvider, images)
	scorer := service.NewScorer(vectorRepo, embeddingProvider)
	recService := service.NewRecommendationService(recipeService, scorer, cacheService)

	recipeHandler := handlers.NewRecipeHandler(recipeService)
	recHandler := handlers.NewRecommendationHandler(recService)

	api := r.Group("/v1")
	{
		// Search kicks off crawls, so it gets the tighter limit.
		api.POST("/recipes/search",
			middleware.RateLimitByIP(2, 5*time.Minute, 10*time.Minute),
			recipeHandler.SearchRecipes)

		// Get a single recipe by its ID
		api.GET("/recipes/:recipe_id", recipeHandler.GetRecipe)

		// Rank recipes against a pantry
		api.POST("/recommendations",
			middleware.RateLimitByIP(10, 5*time.Minute, 10*time.Minute),
			recHandler.Recommend)

		// Per-recipe pantry operations
		api.POST("/recipes/:recipe_id/shopping-list", recHandler.ShoppingList)
		api.POST("/recipes/:recipe_id/variation",
			middleware.RateLimitByIP(5, 5*time.Minute, 10*time.Minute),
			recHandler.GenerateVariation)
	}

	return r, &Services{
		Cache:          cacheService,
		Recipe:         recipeService,
		Recommendation: recService,
	}
}
