package models

import (
	"github.com/google/uuid"
)

// NewUUID generates a new UUID string
func NewUUID() string {
	return uuid.New().String()
}

// Float returns a pointer to v, for populating optional spec fields.
func Float(v float64) *float64 {
	return &v
}

func Int(v int) *int {
	return &v
}
