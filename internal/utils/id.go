package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the first n hex characters of a fresh uuid.
func ShortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(id) {
		return id
	}
	return id[:n]
}
