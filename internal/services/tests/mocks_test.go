package services_test

import (
	"context"
	"io"

	"dream_journal_go_backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// stubRand is a scripted Rand: Intn replays the configured values in order
// (modulo n) and Perm returns the identity permutation.
type stubRand struct {
	intns []int
	calls int
}

func (r *stubRand) Intn(n int) int {
	if len(r.intns) == 0 {
		return 0
	}
	v := r.intns[r.calls%len(r.intns)] % n
	r.calls++
	return v
}

func (r *stubRand) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

type MockStorageServiceDB struct {
	mock.Mock
}

func (m *MockStorageServiceDB) GetItem(key string) (string, bool, error) {
	args := m.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorageServiceDB) SetItem(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockStorageServiceDB) RemoveItem(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

type MockDreamStore struct {
	mock.Mock
}

func (m *MockDreamStore) AddDream(date, dreamText string) (models.Dream, error) {
	args := m.Called(date, dreamText)
	return args.Get(0).(models.Dream), args.Error(1)
}

func (m *MockDreamStore) UpdateDream(id string, updates models.DreamUpdate) error {
	args := m.Called(id, updates)
	return args.Error(0)
}

func (m *MockDreamStore) GetDreams() []models.Dream {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Dream)
}

func (m *MockDreamStore) GetDreamByDate(date string) (models.Dream, bool) {
	args := m.Called(date)
	return args.Get(0).(models.Dream), args.Bool(1)
}

func (m *MockDreamStore) GetDreamDates() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockDreamStore) DeleteDream(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDreamStore) ClearAllDreams() error {
	args := m.Called()
	return args.Error(0)
}

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) APIKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCredentialStore) HasAPIKey() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCredentialStore) SetAPIKey(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCredentialStore) AgentID() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *MockCredentialStore) StoreAgentID(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCredentialStore) InvalidateAgent() error {
	args := m.Called()
	return args.Error(0)
}

type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateDreamImage(ctx context.Context, prompt string) ([]byte, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageGenerator) ValidateKey(ctx context.Context, key string) bool {
	args := m.Called(ctx, key)
	return args.Bool(0)
}

func (m *MockImageGenerator) TestConnection(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

type MockImageStorageManager struct {
	mock.Mock
}

func (m *MockImageStorageManager) SaveImage(name string, content io.Reader) error {
	args := m.Called(name, content)
	return args.Error(0)
}

func (m *MockImageStorageManager) LoadImage(name string) ([]byte, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageStorageManager) DeleteImage(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockImageStorageManager) ListImages() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
