package services

import (
	"fmt"
	"sync"

	"dream_journal_go_backend/internal/models"
)

// agentCache is the two-state cache for the provider-side generation agent:
// either Uninitialized or Ready with an id. Invalidation is an explicit
// operation tied to credential changes.
type agentCache struct {
	ready bool
	id    string
}

// CredentialService owns the provider API key and the cached image-agent id,
// both persisted in the key-value store. Changing the key invalidates the
// agent cache because agents are scoped to a credential.
type CredentialService struct {
	mu      sync.Mutex
	storage StorageServiceDB
	apiKey  string
	agent   agentCache
}

// NewCredentialService rehydrates the credential and agent cache from storage.
func NewCredentialService(storage StorageServiceDB) (*CredentialService, error) {
	s := &CredentialService{storage: storage}

	key, ok, err := storage.GetItem(models.StorageKeyAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load API key: %w", err)
	}
	if ok {
		s.apiKey = key
	}

	agentID, ok, err := storage.GetItem(models.StorageKeyAgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent id: %w", err)
	}
	if ok && agentID != "" {
		s.agent = agentCache{ready: true, id: agentID}
	}

	return s, nil
}

// APIKey returns the configured provider credential, empty when unset.
func (s *CredentialService) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

// HasAPIKey reports whether a provider credential is configured.
func (s *CredentialService) HasAPIKey() bool {
	return s.APIKey() != ""
}

// SetAPIKey persists a new credential and invalidates the cached agent id.
func (s *CredentialService) SetAPIKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetItem(models.StorageKeyAPIKey, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	s.apiKey = key
	return s.invalidateAgentLocked()
}

// AgentID returns the cached generation-agent id; false means Uninitialized.
func (s *CredentialService) AgentID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.agent.ready {
		return "", false
	}
	return s.agent.id, true
}

// StoreAgentID moves the agent cache to Ready and persists the id.
func (s *CredentialService) StoreAgentID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetItem(models.StorageKeyAgentID, id); err != nil {
		return fmt.Errorf("failed to save agent id: %w", err)
	}
	s.agent = agentCache{ready: true, id: id}
	return nil
}

// InvalidateAgent moves the agent cache back to Uninitialized.
func (s *CredentialService) InvalidateAgent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidateAgentLocked()
}

func (s *CredentialService) invalidateAgentLocked() error {
	if err := s.storage.RemoveItem(models.StorageKeyAgentID); err != nil {
		return fmt.Errorf("failed to remove agent id: %w", err)
	}
	s.agent = agentCache{}
	return nil
}
