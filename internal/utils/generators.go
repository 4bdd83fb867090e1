package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random identifier for locally stored documents.
func NewID() string {
	return uuid.NewString()
}
