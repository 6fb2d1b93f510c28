package service

import (
	"errors"
	"testing"
	"time"

	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"github.com/pantrypilot/pantrypilot-api/internal/testutil"
)

func TestQueryHashCaseInsensitive(t *testing.T) {
	if QueryHash("Chicken Pasta") != QueryHash("chicken pasta") {
		t.Error("case variants of the same query produced different hashes")
	}
	if QueryHash("chicken") == QueryHash("beef") {
		t.Error("different queries produced the same hash")
	}
	if got := len(QueryHash("anything")); got != 32 {
		t.Errorf("hash length = %d, want 32 hex chars", got)
	}
}

func TestCacheGetHit(t *testing.T) {
	want := models.ScoredRecipes{testutil.TestScoredRecipe(0.9)}
	repo := &testutil.MockCacheRepo{
		GetByHashFunc: func(queryHash string) (*models.RecipeCache, error) {
			if queryHash != QueryHash("pasta") {
				t.Errorf("looked up hash %q, want hash of %q", queryHash, "pasta")
			}
			return &models.RecipeCache{
				QueryHash: queryHash,
				Results:   want,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}

	got, ok := NewCacheService(repo).Get("pasta")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Title != want[0].Title {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCacheGetExpiredEntryIsMiss(t *testing.T) {
	repo := &testutil.MockCacheRepo{
		GetByHashFunc: func(queryHash string) (*models.RecipeCache, error) {
			return &models.RecipeCache{
				QueryHash: queryHash,
				Results:   models.ScoredRecipes{testutil.TestScoredRecipe(0.9)},
				ExpiresAt: time.Now().Add(-time.Minute),
			}, nil
		},
	}
	if _, ok := NewCacheService(repo).Get("pasta"); ok {
		t.Error("entry past its expiry was served")
	}
}

func TestCacheGetMissOnNotFound(t *testing.T) {
	repo := &testutil.MockCacheRepo{
		GetByHashFunc: func(string) (*models.RecipeCache, error) {
			return nil, repository.NotFoundError{}
		},
	}
	if _, ok := NewCacheService(repo).Get("pasta"); ok {
		t.Error("expected miss for absent entry")
	}
}

func TestCacheGetDegradesOnStorageError(t *testing.T) {
	repo := &testutil.MockCacheRepo{
		GetByHashFunc: func(string) (*models.RecipeCache, error) {
			return nil, errors.New("connection refused")
		},
	}
	if _, ok := NewCacheService(repo).Get("pasta"); ok {
		t.Error("storage error should read as a miss, not a hit")
	}
}

func TestCachePut(t *testing.T) {
	var stored *models.RecipeCache
	repo := &testutil.MockCacheRepo{
		UpsertFunc: func(entry *models.RecipeCache) error {
			stored = entry
			return nil
		},
	}

	before := time.Now()
	NewCacheService(repo).Put("Pasta", models.ScoredRecipes{}, DefaultCacheTTL)

	if stored == nil {
		t.Fatal("nothing was stored")
	}
	if stored.QueryHash != QueryHash("Pasta") {
		t.Errorf("stored hash %q, want %q", stored.QueryHash, QueryHash("Pasta"))
	}
	if stored.Query != "Pasta" {
		t.Errorf("stored query %q, want original casing", stored.Query)
	}
	wantExpiry := before.Add(DefaultCacheTTL)
	if stored.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || stored.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want about %v", stored.ExpiresAt, wantExpiry)
	}
}

func TestCacheSweep(t *testing.T) {
	repo := &testutil.MockCacheRepo{
		DeleteExpiredFunc: func() (int64, error) { return 7, nil },
	}
	if got := NewCacheService(repo).Sweep(); got != 7 {
		t.Errorf("Sweep() = %d, want 7", got)
	}
}
