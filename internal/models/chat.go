package models

import (
	"time"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single entry in a dream chat session. Sessions are
// transient: messages live in memory only and are discarded when the session
// ends.
type ChatMessage struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	IsGenerating bool      `json:"isGenerating,omitempty"`

	// PromptText remembers the dream text that produced an image message so
	// a regenerate can re-run the pipeline with the original input.
	PromptText string `json:"promptText,omitempty"`
}
