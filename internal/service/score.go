package service

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"github.com/pantrypilot/pantrypilot-api/internal/repository"
	"go.uber.org/zap"
)

// noiseWords are descriptors stripped from ingredient names before matching
// so that "fresh basil" and "basil" compare equal.
var noiseWords = []string{"fresh", "dried", "chopped"}

// NormalizeIngredient canonicalizes an ingredient name for matching:
// lowercase, descriptor words removed, surrounding whitespace trimmed.
// Normalizing an already-normalized name is a no-op.
func NormalizeIngredient(name string) string {
	s := strings.ToLower(name)
	for _, w := range noiseWords {
		s = strings.ReplaceAll(s, w, "")
	}
	return strings.TrimSpace(s)
}

// ScoreOptions tunes a single scoring pass.
type ScoreOptions struct {
	// UseEmbeddings blends semantic similarity into the lexical score.
	UseEmbeddings bool
	// FuzzyThreshold is the ratio a pair must exceed (strictly) to count as
	// a fuzzy match, on a 0-100 scale.
	FuzzyThreshold float64
	// EmbeddingWeight is the share of the final score taken from the
	// embedding similarity when blending.
	EmbeddingWeight float64
}

// DefaultScoreOptions returns the standard scoring configuration.
func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		UseEmbeddings:   true,
		FuzzyThreshold:  75,
		EmbeddingWeight: 0.3,
	}
}

// Scorer ranks recipes against a pantry using exact, fuzzy, and embedding
// evidence.
type Scorer struct {
	Vectors    repository.VectorRepo
	Embeddings ai.EmbeddingProvider
}

// NewScorer creates a Scorer over the given vector store and embedding
// provider.
func NewScorer(vectors repository.VectorRepo, embeddings ai.EmbeddingProvider) *Scorer {
	return &Scorer{Vectors: vectors, Embeddings: embeddings}
}

// Score computes a match score in [0,1] for one recipe against the pantry.
// pantryEmbedding may be nil, which restricts scoring to the lexical path.
// A recipe with no ingredients scores zero.
func (s *Scorer) Score(ctx context.Context, pantryItems []string, pantryEmbedding []float32, recipe *models.Recipe, opts ScoreOptions) models.ScoredRecipe {
	scored := models.ScoredRecipe{Recipe: *recipe}

	total := len(recipe.Ingredients)
	if total == 0 {
		scored.MissingIngredients = []string{}
		return scored
	}

	pantry := make(map[string]bool, len(pantryItems))
	for _, item := range pantryItems {
		if n := NormalizeIngredient(item); n != "" {
			pantry[n] = true
		}
	}

	// Exact matches count distinct ingredients; fuzzy and missing are
	// classified per occurrence, so duplicated recipe lines weigh twice.
	exact := 0
	fuzzy := 0
	missing := make([]string, 0, total)
	exactSeen := make(map[string]bool, total)
	for _, ing := range recipe.Ingredients {
		name := NormalizeIngredient(ing.Name)
		if name == "" {
			continue
		}

		if pantry[name] {
			if !exactSeen[name] {
				exactSeen[name] = true
				exact++
			}
			continue
		}
		if bestFuzzyRatio(name, pantry) > opts.FuzzyThreshold {
			fuzzy++
			continue
		}
		missing = append(missing, ing.Name)
	}

	score := (float64(exact) + 0.7*float64(fuzzy)) / float64(total)

	scored.ExactMatches = exact
	scored.FuzzyMatches = fuzzy
	scored.MissingIngredients = missing

	if opts.UseEmbeddings && pantryEmbedding != nil {
		if sim, ok := s.recipeSimilarity(recipe.ID, pantryEmbedding); ok {
			scored.EmbeddingSimilarity = &sim
			score = (1-opts.EmbeddingWeight)*score + opts.EmbeddingWeight*sim
		}
	}

	score = clamp01(score)
	scored.Score = score
	scored.MatchPercentage = math.Round(score*1000) / 10
	return scored
}

// recipeSimilarity looks up the recipe's stored embedding and compares it to
// the pantry embedding. A missing embedding is a quiet miss, not an error.
func (s *Scorer) recipeSimilarity(recipeID uuid.UUID, pantryEmbedding []float32) (float64, bool) {
	emb, err := s.Vectors.GetEmbedding(recipeID)
	if err != nil {
		if _, notFound := err.(repository.NotFoundError); !notFound {
			logger.Get().Warn("embedding lookup failed", zap.Error(err))
		}
		return 0, false
	}
	return cosineSimilarity(pantryEmbedding, emb.Embedding.Slice()), true
}

// PantryEmbedding embeds the joined pantry text for semantic comparison.
// Returns nil when the pantry is empty or the provider fails, which scoring
// treats as "lexical only".
func (s *Scorer) PantryEmbedding(ctx context.Context, pantryItems []string) []float32 {
	if len(pantryItems) == 0 || s.Embeddings == nil {
		return nil
	}
	emb, err := s.Embeddings.GenerateEmbedding(ctx, strings.Join(pantryItems, ", "))
	if err != nil {
		logger.Get().Warn("pantry embedding failed", zap.Error(err))
		return nil
	}
	return emb
}

// bestFuzzyRatio returns the highest similarity ratio between name and any
// pantry entry, on a 0-100 scale.
func bestFuzzyRatio(name string, pantry map[string]bool) float64 {
	best := 0.0
	for item := range pantry {
		if r := fuzzyRatio(name, item); r > best {
			best = r
		}
	}
	return best
}

// fuzzyRatio is an indel-based similarity ratio between two strings on a
// 0-100 scale: 100*(1 - distance/(len(a)+len(b))), where substitutions cost
// two edits. Identical strings score 100.
func fuzzyRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 100
	}
	dist := indelDistance(a, b)
	return 100 * (1 - float64(dist)/float64(la+lb))
}

// indelDistance is Levenshtein distance with substitution cost 2, which
// makes it an insert/delete edit distance.
func indelDistance(a, b string) int {
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 2
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or a zero-norm vector yield zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
