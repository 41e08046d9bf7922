package services

import (
	"context"
	"io"

	"dream_journal_go_backend/internal/models"
)

// Rand is the slice of math/rand the services draw on. It is injected so
// tests can supply a fixed sequence instead of ambient randomness.
type Rand interface {
	Intn(n int) int
	Perm(n int) []int
}

type DreamStore interface {
	AddDream(date, dreamText string) (models.Dream, error)
	UpdateDream(id string, updates models.DreamUpdate) error
	GetDreams() []models.Dream
	GetDreamByDate(date string) (models.Dream, bool)
	GetDreamDates() []string
	DeleteDream(id string) error
	ClearAllDreams() error
}

type CredentialStore interface {
	APIKey() string
	HasAPIKey() bool
	SetAPIKey(key string) error
	AgentID() (string, bool)
	StoreAgentID(id string) error
	InvalidateAgent() error
}

type ImageGenerator interface {
	GenerateDreamImage(ctx context.Context, prompt string) ([]byte, error)
	ValidateKey(ctx context.Context, key string) bool
	TestConnection(ctx context.Context) bool
}

type ImageStorageManager interface {
	SaveImage(name string, content io.Reader) error
	LoadImage(name string) ([]byte, error)
	DeleteImage(name string) error
	ListImages() ([]string, error)
}

type ChatSessionManager interface {
	EnsureSession(date string) models.ChatMessage
	AppendMessage(date string, msg models.ChatMessage) (models.ChatMessage, bool)
	RemoveGenerating(date string)
	GetMessage(date, messageID string) (models.ChatMessage, bool)
	Transcript(date string) []models.ChatMessage
	BeginGeneration(date string) bool
	FinishGeneration(date string)
	EndSession(date string)
}
