package models

import "time"

// RecipeCache is one cached query result list, upserted by QueryHash.
// An entry is valid iff now < ExpiresAt; expired rows are inert until the
// periodic sweep deletes them.
type RecipeCache struct {
	QueryHash string        `gorm:"primaryKey" json:"query_hash"`
	Query     string        `json:"query"`
	Results   ScoredRecipes `gorm:"type:jsonb" json:"results"`
	ExpiresAt time.Time     `gorm:"index" json:"expires_at"`
}

// TableName keeps the table name the external schema expects.
func (RecipeCache) TableName() string {
	return "recipe_cache"
}
