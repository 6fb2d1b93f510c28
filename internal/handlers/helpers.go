package handlers

import (
	"github.com/google/uuid"
)

// parseUUIDParam parses a path parameter into a UUID.
func parseUUIDParam(param string) (uuid.UUID, error) {
	return uuid.Parse(param)
}
