package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pantrypilot/pantrypilot-api/internal/config"
	"github.com/pantrypilot/pantrypilot-api/internal/db"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/router"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// refreshJobTimeout bounds the daily recipe refresh run.
const refreshJobTimeout = 30 * time.Minute

// init is called before the main function.
func init() {
	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)

	// Configure the runtime
	ConfigureRuntime()
}

// Entry point for the API.
func main() {
	defer logger.Sync()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}

	// Load prompts from YAML
	prompts, err := config.LoadPrompts("configs/prompts.yaml")
	if err != nil {
		logger.Get().Fatal("failed to load prompts", zap.Error(err))
	}
	cfg.Prompts = prompts

	// Connect to the database
	database, err := db.New(cfg)
	if err != nil {
		logger.Get().Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := database.DB()
	if err != nil {
		logger.Get().Fatal("failed to get underlying sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// Create a new gin router
	gin.SetMode(gin.ReleaseMode)
	r, services := router.SetupRouter(cfg, database)

	// Background jobs: hourly cache sweep, daily recipe refresh
	scheduler := startScheduler(services)
	defer scheduler.Stop()

	// Run the server
	logger.Get().Info("starting server", zap.String("port", cfg.EnvVars.Port))
	r.Run(":" + cfg.EnvVars.Port)
}

// startScheduler runs the recurring maintenance jobs.
func startScheduler(services *router.Services) *cron.Cron {
	scheduler := cron.New()

	scheduler.AddFunc("@hourly", func() {
		services.Cache.Sweep()
	})

	scheduler.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
		defer cancel()
		refreshed := services.Recipe.RefreshOutdated(ctx)
		if refreshed > 0 {
			logger.Get().Info("outdated recipes refreshed", zap.Int("count", refreshed))
		}
	})

	scheduler.Start()
	return scheduler
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}
