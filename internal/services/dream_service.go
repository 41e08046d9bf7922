package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"dream_journal_go_backend/internal/models"
)

const idSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DreamService keeps the dream collection in memory and writes the full
// snapshot back to the key-value store on every mutation, rehydrating from it
// at construction time.
type DreamService struct {
	mu      sync.Mutex
	storage StorageServiceDB
	dreams  []models.Dream
	now     func() time.Time
	rng     Rand
}

// NewDreamService loads the persisted snapshot and returns a ready store.
// now and rng are injected so tests can control timestamps and id suffixes.
func NewDreamService(storage StorageServiceDB, now func() time.Time, rng Rand) (*DreamService, error) {
	s := &DreamService{
		storage: storage,
		now:     now,
		rng:     rng,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DreamService) load() error {
	raw, ok, err := s.storage.GetItem(models.StorageKeyDreams)
	if err != nil {
		return fmt.Errorf("failed to load dream snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	var snapshot models.DreamSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return fmt.Errorf("failed to decode dream snapshot: %w", err)
	}
	if snapshot.Version != models.DreamSnapshotVersion {
		// Migration gate: unknown versions are left on disk untouched and the
		// store starts empty rather than rewriting data it doesn't understand.
		log.Printf("dream snapshot version %d not supported, starting empty", snapshot.Version)
		return nil
	}

	s.dreams = snapshot.Dreams
	return nil
}

// persist writes the full collection back under the dream-storage key.
// Callers must hold s.mu.
func (s *DreamService) persist() error {
	snapshot := models.DreamSnapshot{
		Version: models.DreamSnapshotVersion,
		Dreams:  s.dreams,
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode dream snapshot: %w", err)
	}
	return s.storage.SetItem(models.StorageKeyDreams, string(raw))
}

// newDreamID builds a timestamp-plus-random identifier. The random suffix
// keeps ids distinct even for two calls within the same millisecond.
func (s *DreamService) newDreamID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idSuffixAlphabet[s.rng.Intn(len(idSuffixAlphabet))]
	}
	return fmt.Sprintf("dream_%d_%s", s.now().UnixMilli(), suffix)
}

// AddDream appends a new record and persists the collection. Dates are not
// required to be unique; callers that want one entry per day must check with
// GetDreamByDate first.
func (s *DreamService) AddDream(date, dreamText string) (models.Dream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dream := models.Dream{
		ID:        s.newDreamID(),
		Date:      date,
		DreamText: dreamText,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.dreams = append(s.dreams, dream)
	if err := s.persist(); err != nil {
		return models.Dream{}, err
	}
	return dream, nil
}

// UpdateDream merges the non-nil fields into the matching record and
// refreshes UpdatedAt. An unknown id is a silent no-op.
func (s *DreamService) UpdateDream(id string, updates models.DreamUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.dreams {
		if s.dreams[i].ID != id {
			continue
		}
		if updates.DreamText != nil {
			s.dreams[i].DreamText = *updates.DreamText
		}
		if updates.ImageURL != nil {
			s.dreams[i].ImageURL = *updates.ImageURL
		}
		s.dreams[i].UpdatedAt = s.now()
		return s.persist()
	}
	return nil
}

// GetDreams returns a copy of the full collection in insertion order.
func (s *DreamService) GetDreams() []models.Dream {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Dream, len(s.dreams))
	copy(out, s.dreams)
	return out
}

// GetDreamByDate returns the first record matching the exact date string in
// insertion order.
func (s *DreamService) GetDreamByDate(date string) (models.Dream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dream := range s.dreams {
		if dream.Date == date {
			return dream, true
		}
	}
	return models.Dream{}, false
}

// GetDreamDates returns the dates of all completed dreams (those with an
// image), most recent first. YYYY-MM-DD strings sort the same as the dates
// they encode.
func (s *DreamService) GetDreamDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]string, 0, len(s.dreams))
	for _, dream := range s.dreams {
		if dream.Complete() {
			dates = append(dates, dream.Date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// DeleteDream removes the matching record and persists.
func (s *DreamService) DeleteDream(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.dreams[:0]
	for _, dream := range s.dreams {
		if dream.ID != id {
			kept = append(kept, dream)
		}
	}
	s.dreams = kept
	return s.persist()
}

// ClearAllDreams wipes the collection and persists the empty snapshot.
func (s *DreamService) ClearAllDreams() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dreams = nil
	return s.persist()
}
