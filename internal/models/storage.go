package models

import (
	"time"
)

// StorageItem is one entry in the opaque key-value store the rest of the
// application persists through. Values are raw strings; callers decide the
// encoding (the dream snapshot is JSON, the API key is a bare string).
type StorageItem struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Well-known storage keys.
const (
	StorageKeyDreams  = "dream-storage"
	StorageKeyAPIKey  = "mistral_api_key"
	StorageKeyAgentID = "mistral_image_agent_id"
)
