// Package project persists named timeline projects to the local SQLite
// database and translates the millisecond-based external wire format to the
// engine's canonical in-memory shapes (seconds, one field name per concept).
package project

import (
	"time"

	"github.com/google/uuid"
)

// Project is a saved timeline: metadata row plus its layer and clip sets.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
