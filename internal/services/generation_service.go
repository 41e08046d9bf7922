package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dream_journal_go_backend/internal/models"
	"dream_journal_go_backend/internal/utils/broker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyDreamText   = errors.New("dream text is empty")
	ErrMessageNotFound  = errors.New("message not found")
	ErrDreamNotFound    = errors.New("no dream recorded for this date")
	ErrNoImageInMessage = errors.New("message carries no image")
)

// Chat event types pushed to websocket subscribers.
const (
	EventMessage          = "message"
	EventRemoveGenerating = "remove_generating"
)

// ChatEvent is one transcript change, published per session date.
type ChatEvent struct {
	Type    string             `json:"type"`
	Date    string             `json:"date"`
	Message models.ChatMessage `json:"message,omitempty"`
}

// ChatTopic names the broker topic for a session date.
func ChatTopic(date string) string {
	return "chat_" + date
}

// Assistant copy for the generation flow.
const (
	generatingText   = "Creating your dream visualization..."
	regeneratingText = "Regenerating your dream visualization..."
	imageReadyText   = "Here's your dream visualization! I've captured the essence of your dream and transformed it into this beautiful artwork."
	imageRegenText   = "Here's a new interpretation of your dream! I've created a fresh visualization with a different artistic approach."
	generateErrText  = "Sorry, I encountered an error while creating your dream visualization. Please try again."
	regenErrText     = "Sorry, I encountered an error while regenerating your dream visualization. Please try again."
)

// mockThemes feeds the placeholder-image fallback.
var mockThemes = []string{"nature", "space", "abstract", "city", "ocean", "forest", "mountain", "desert"}

// MockImageURL is the placeholder-image template. Fully determined by its
// inputs so fallback output is testable against golden URLs.
func MockImageURL(theme string, seed int) string {
	return fmt.Sprintf("https://source.unsplash.com/800x600/?%s,dream,surreal&sig=%d", theme, seed)
}

// GenerationService orchestrates the dream-to-image flow: it owns the
// sequencing between chat state, the dream store, the provider, and the
// placeholder fallback.
type GenerationService struct {
	dreams       DreamStore
	sessions     ChatSessionManager
	provider     ImageGenerator
	creds        CredentialStore
	images       ImageStorageManager
	events       *broker.Broker[ChatEvent]
	rng          Rand
	mockDelay    time.Duration
	imageBaseURL string
}

func NewGenerationService(
	dreams DreamStore,
	sessions ChatSessionManager,
	provider ImageGenerator,
	creds CredentialStore,
	images ImageStorageManager,
	events *broker.Broker[ChatEvent],
	rng Rand,
	mockDelay time.Duration,
	imageBaseURL string,
) *GenerationService {
	return &GenerationService{
		dreams:       dreams,
		sessions:     sessions,
		provider:     provider,
		creds:        creds,
		images:       images,
		events:       events,
		rng:          rng,
		mockDelay:    mockDelay,
		imageBaseURL: imageBaseURL,
	}
}

func (s *GenerationService) publish(date string, event ChatEvent) {
	if s.events != nil {
		event.Date = date
		s.events.Publish(ChatTopic(date), event)
	}
}

// append adds a message through the session service and mirrors it to
// websocket subscribers. A false return means the session was torn down.
func (s *GenerationService) append(date string, msg models.ChatMessage) (models.ChatMessage, bool) {
	stored, ok := s.sessions.AppendMessage(date, msg)
	if !ok {
		return models.ChatMessage{}, false
	}
	s.publish(date, ChatEvent{Type: EventMessage, Message: stored})
	return stored, true
}

func (s *GenerationService) removeGenerating(date string) {
	s.sessions.RemoveGenerating(date)
	s.publish(date, ChatEvent{Type: EventRemoveGenerating})
}

// Submit runs one full generation for the user's dream text. Submitting an
// empty text is an error; submitting while a generation is already in flight
// for the session is a no-op that returns the current transcript.
func (s *GenerationService) Submit(ctx context.Context, date, text string) ([]models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDreamText
	}

	s.sessions.EnsureSession(date)
	if !s.sessions.BeginGeneration(date) {
		return s.sessions.Transcript(date), nil
	}
	defer s.sessions.FinishGeneration(date)

	s.append(date, models.ChatMessage{Role: models.RoleUser, Text: text})
	s.append(date, models.ChatMessage{
		Role:         models.RoleAssistant,
		Text:         generatingText,
		IsGenerating: true,
	})

	// Each date gets a dream record on its first submitted message.
	if _, ok := s.dreams.GetDreamByDate(date); !ok {
		if _, err := s.dreams.AddDream(date, text); err != nil {
			s.removeGenerating(date)
			s.append(date, models.ChatMessage{Role: models.RoleAssistant, Text: generateErrText})
			return s.sessions.Transcript(date), nil
		}
	}

	imageURL, err := s.generateImage(ctx, text)
	s.removeGenerating(date)
	if err != nil {
		s.append(date, models.ChatMessage{Role: models.RoleAssistant, Text: generateErrText})
		return s.sessions.Transcript(date), nil
	}

	s.append(date, models.ChatMessage{
		Role:       models.RoleAssistant,
		Text:       imageReadyText,
		ImageURL:   imageURL,
		PromptText: text,
	})
	return s.sessions.Transcript(date), nil
}

// generateImage tries the provider when a credential is configured and falls
// back to the deterministic placeholder on any provider failure. The user is
// never shown a provider error; only a failing fallback reaches the caller.
func (s *GenerationService) generateImage(ctx context.Context, text string) (string, error) {
	if s.creds.HasAPIKey() {
		prompt := EnhanceDreamPrompt(s.rng, text)
		data, err := s.provider.GenerateDreamImage(ctx, prompt)
		if err == nil {
			name := fmt.Sprintf("dream_%s.png", uuid.NewString())
			if saveErr := s.images.SaveImage(name, bytes.NewReader(data)); saveErr == nil {
				return s.imageBaseURL + "/" + name, nil
			} else {
				log.Warn().Err(saveErr).Msg("failed to store generated image, using mock image")
			}
		} else {
			log.Warn().Err(err).Msg("Mistral API failed, using mock image")
		}
	}
	return s.mockImage(ctx)
}

// mockImage simulates provider latency and returns a themed placeholder URL.
func (s *GenerationService) mockImage(ctx context.Context) (string, error) {
	if s.mockDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.mockDelay):
		}
	}

	theme := mockThemes[s.rng.Intn(len(mockThemes))]
	seed := s.rng.Intn(1000)
	return MockImageURL(theme, seed), nil
}

// Accept copies the chosen message's image onto the date's dream record. The
// store is only ever written on an explicit accept.
func (s *GenerationService) Accept(date, messageID string) error {
	msg, ok := s.sessions.GetMessage(date, messageID)
	if !ok {
		return ErrMessageNotFound
	}
	if msg.ImageURL == "" {
		return ErrNoImageInMessage
	}

	dream, ok := s.dreams.GetDreamByDate(date)
	if !ok {
		return ErrDreamNotFound
	}

	imageURL := msg.ImageURL
	return s.dreams.UpdateDream(dream.ID, models.DreamUpdate{ImageURL: &imageURL})
}

// Regenerate re-runs the pipeline with the prompt text that produced the
// given image message. The transcript gains a new image message; the dream
// record is untouched until a subsequent Accept.
func (s *GenerationService) Regenerate(ctx context.Context, date, messageID string) ([]models.ChatMessage, error) {
	msg, ok := s.sessions.GetMessage(date, messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if msg.ImageURL == "" || msg.PromptText == "" {
		return nil, ErrNoImageInMessage
	}

	if !s.sessions.BeginGeneration(date) {
		return s.sessions.Transcript(date), nil
	}
	defer s.sessions.FinishGeneration(date)

	s.append(date, models.ChatMessage{
		Role:         models.RoleAssistant,
		Text:         regeneratingText,
		IsGenerating: true,
	})

	imageURL, err := s.generateImage(ctx, msg.PromptText)
	s.removeGenerating(date)
	if err != nil {
		s.append(date, models.ChatMessage{Role: models.RoleAssistant, Text: regenErrText})
		return s.sessions.Transcript(date), nil
	}

	s.append(date, models.ChatMessage{
		Role:       models.RoleAssistant,
		Text:       imageRegenText,
		ImageURL:   imageURL,
		PromptText: msg.PromptText,
	})
	return s.sessions.Transcript(date), nil
}
