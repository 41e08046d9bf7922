package services

import (
	"errors"

	"dream_journal_go_backend/internal/models"

	"gorm.io/gorm"
)

// StorageServiceDB defines the interface for the opaque key-value store the
// application persists through.
type StorageServiceDB interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// DefaultStorageService implements StorageServiceDB on top of gorm
type DefaultStorageService struct {
	db *gorm.DB
}

// NewStorageServiceDB creates a new DefaultStorageService
func NewStorageServiceDB(db *gorm.DB) StorageServiceDB {
	return &DefaultStorageService{db: db}
}

// GetItem returns the stored value for key; the second return is false when
// the key is absent.
func (s *DefaultStorageService) GetItem(key string) (string, bool, error) {
	var item models.StorageItem
	err := s.db.Where("key = ?", key).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return item.Value, true, nil
}

// SetItem writes the value for key, creating or overwriting as needed.
func (s *DefaultStorageService) SetItem(key, value string) error {
	item := models.StorageItem{Key: key}
	result := s.db.Where(models.StorageItem{Key: key}).
		Assign(models.StorageItem{Key: key, Value: value}).
		FirstOrCreate(&item)
	return result.Error
}

// RemoveItem deletes the entry for key; removing an absent key is not an error.
func (s *DefaultStorageService) RemoveItem(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.StorageItem{}).Error
}
