package id

import (
	"github.com/google/uuid"
)

func Generate() string {
	return uuid.New().String()
}

// Parse validates and parses a string uuid.
func Parse(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
