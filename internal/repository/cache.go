package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository stores cached query results in the recipe_cache table.
type CacheRepository struct {
	DB *gorm.DB
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{DB: db}
}

// GetByHash returns the unexpired cache entry for a query hash. Expired
// entries are treated as absent; they stay in the table until swept.
func (r *CacheRepository) GetByHash(queryHash string) (*models.RecipeCache, error) {
	var entry models.RecipeCache

	err := r.DB.Where("query_hash = ? AND expires_at > ?", queryHash, time.Now()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{message: "Cache entry not found"}
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return &entry, nil
}

// Upsert writes a cache entry, overwriting any prior entry for the same hash.
func (r *CacheRepository) Upsert(entry *models.RecipeCache) error {
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "results", "expires_at"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes all entries whose expiry has passed and reports how
// many rows were swept.
func (r *CacheRepository) DeleteExpired() (int64, error) {
	result := r.DB.Where("expires_at < ?", time.Now()).Delete(&models.RecipeCache{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
