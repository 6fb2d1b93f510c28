package service

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long cached query results stay servable.
const DefaultCacheTTL = 24 * time.Hour

// CacheService fronts the recipe query cache. Lookups and writes never fail
// the request path; a broken cache degrades to cache misses.
type CacheService struct {
	Repo repository.CacheRepo
}

// NewCacheService creates a CacheService backed by the given repository.
func NewCacheService(repo repository.CacheRepo) *CacheService {
	return &CacheService{Repo: repo}
}

// QueryHash returns the cache key for a query. Case variants of the same
// query share an entry.
func QueryHash(query string) string {
	sum := md5.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached results for query, or ok=false when there is no
// live entry. Storage errors are logged and reported as misses.
func (s *CacheService) Get(query string) (models.ScoredRecipes, bool) {
	entry, err := s.Repo.GetByHash(QueryHash(query))
	if err != nil {
		if _, notFound := err.(repository.NotFoundError); !notFound {
			logger.Get().Warn("cache lookup failed", zap.String("query", query), zap.Error(err))
		}
		return nil, false
	}
	// The repository filters expired rows already; re-check here so a stale
	// entry can never be served regardless of the storage path.
	if !entry.ExpiresAt.After(time.Now()) {
		return nil, false
	}
	return entry.Results, true
}

// Put stores results for query with the given TTL, replacing any previous
// entry for the same hash. Failures are logged; the caller's results are
// already in hand either way.
func (s *CacheService) Put(query string, results models.ScoredRecipes, ttl time.Duration) {
	entry := &models.RecipeCache{
		QueryHash: QueryHash(query),
		Query:     query,
		Results:   results,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.Repo.Upsert(entry); err != nil {
		logger.Get().Warn("cache write failed", zap.String("query", query), zap.Error(err))
	}
}

// Sweep removes expired entries and returns how many were deleted.
func (s *CacheService) Sweep() int64 {
	deleted, err := s.Repo.DeleteExpired()
	if err != nil {
		logger.Get().Error("cache sweep failed", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		logger.Get().Info("cache sweep complete", zap.Int64("deleted", deleted))
	}
	return deleted
}
