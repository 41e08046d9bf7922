package models

import (
	"time"
)

// Dream pairs a calendar date with the user's dream text and, once the user
// has accepted a generated image, the URL of that image.
type Dream struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	DreamText string    `json:"dreamText"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Complete reports whether the dream is eligible for a calendar indicator.
func (d Dream) Complete() bool {
	return d.ImageURL != ""
}

// DreamSnapshot is the persisted form of the dream collection. The version
// tag gates future schema migrations.
type DreamSnapshot struct {
	Version int     `json:"version"`
	Dreams  []Dream `json:"dreams"`
}

// DreamSnapshotVersion is the current snapshot schema version.
const DreamSnapshotVersion = 1

// DreamUpdate carries the fields UpdateDream may merge into an existing
// record. Nil fields are left untouched.
type DreamUpdate struct {
	DreamText *string
	ImageURL  *string
}
