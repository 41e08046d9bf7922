package services

import (
	"fmt"
	"sync"
	"time"

	"dream_journal_go_backend/internal/models"

	"github.com/google/uuid"
)

// chatSession is one active conversation, keyed by its ISO calendar date.
// Messages are an append-only log; the only filtering mutation is removal of
// transient generating placeholders.
type chatSession struct {
	messages   []models.ChatMessage
	generating bool
}

// ChatSessionService holds the transient per-date chat state. Nothing here is
// persisted: ending a session discards its transcript. A mutex guards the map
// because the HTTP and websocket surfaces can touch sessions concurrently.
type ChatSessionService struct {
	mu       sync.RWMutex
	sessions map[string]*chatSession
	now      func() time.Time
}

func NewChatSessionService(now func() time.Time) *ChatSessionService {
	return &ChatSessionService{
		sessions: make(map[string]*chatSession),
		now:      now,
	}
}

// welcomeText greets the user for the session's date the way the assistant
// opens every conversation.
func welcomeText(date string) string {
	display := date
	if parsed, err := time.Parse("2006-01-02", date); err == nil {
		display = parsed.Format("January 2, 2006")
	}
	return fmt.Sprintf("Hello! I'm Dreamy, your AI dream visualizer. I transform dreams into beautiful visual art. Share a dream with me from %s, and I'll bring it to life through imagery. What dream world shall we explore together?", display)
}

// EnsureSession creates the session for date if it does not exist yet,
// seeding it with the welcome message, and returns that message.
func (s *ChatSessionService) EnsureSession(date string) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[date]; ok {
		if len(session.messages) > 0 {
			return session.messages[0]
		}
		return models.ChatMessage{}
	}

	welcome := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Text:      welcomeText(date),
		Timestamp: s.now(),
	}
	s.sessions[date] = &chatSession{messages: []models.ChatMessage{welcome}}
	return welcome
}

// AppendMessage adds a message to the session's log, assigning id and
// timestamp when absent. The second return is false when no session exists
// for date: a generation finishing after its session was torn down must not
// resurrect it.
func (s *ChatSessionService) AppendMessage(date string, msg models.ChatMessage) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[date]
	if !ok {
		return models.ChatMessage{}, false
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	session.messages = append(session.messages, msg)
	return msg, true
}

// RemoveGenerating drops all transient placeholder messages from the log,
// preserving the order of everything else.
func (s *ChatSessionService) RemoveGenerating(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[date]
	if !ok {
		return
	}

	kept := session.messages[:0]
	for _, msg := range session.messages {
		if !msg.IsGenerating {
			kept = append(kept, msg)
		}
	}
	session.messages = kept
}

// GetMessage looks a message up by id within the session.
func (s *ChatSessionService) GetMessage(date, messageID string) (models.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[date]
	if !ok {
		return models.ChatMessage{}, false
	}
	for _, msg := range session.messages {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return models.ChatMessage{}, false
}

// Transcript returns a copy of the session's log in insertion order; nil when
// no session exists.
func (s *ChatSessionService) Transcript(date string) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[date]
	if !ok {
		return nil
	}
	out := make([]models.ChatMessage, len(session.messages))
	copy(out, session.messages)
	return out
}

// BeginGeneration marks the session as having a generation in flight. It
// returns false when one is already running (submissions while generating are
// no-ops) or when the session does not exist.
func (s *ChatSessionService) BeginGeneration(date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[date]
	if !ok || session.generating {
		return false
	}
	session.generating = true
	return true
}

// FinishGeneration clears the in-flight flag.
func (s *ChatSessionService) FinishGeneration(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[date]; ok {
		session.generating = false
	}
}

// EndSession discards the session and its transcript. An in-flight
// generation for the date becomes a no-op once this returns.
func (s *ChatSessionService) EndSession(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, date)
}
