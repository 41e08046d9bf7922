package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultMistralBaseURL = "https://api.mistral.ai/v1"

const imageAgentModel = "mistral-medium-2505"

// imageAgentInstructions is the fixed system prompt the generation agent is
// registered with.
const imageAgentInstructions = `You are a Dream Visualizer Agent that transforms dream descriptions into beautiful visual artwork.

CORE BEHAVIOR:
- Generate images immediately when user shares a dream
- Focus on emotional atmosphere and surreal, dreamlike qualities
- Use atmospheric lighting, rich colors, and strong composition
- Balance realistic elements with impossible dream logic
- Keep responses brief and focused on visual aspects

COMMUNICATION STYLE:
- Warm but not overly enthusiastic
- Professional yet friendly
- Avoid cliché "magical" language
- Keep responses concise

RESPONSE FLOW:
1. Listen to dream description
2. Generate image immediately
3. Present with brief, enthusiastic comment
4. Ask if they want adjustments

VISUAL PRIORITIES:
- Capture emotional atmosphere
- Emphasize surreal, dreamlike qualities
- Use atmospheric lighting and rich colors
- Create compositionally strong images
- Focus on visual storytelling with depth and mood

When offering modifications, suggest specific improvements like adjusting lighting, color palette, perspective, or emphasizing certain elements.`

var (
	ErrAPIKeyNotConfigured = errors.New("mistral API key not configured")
	ErrNoImageGenerated    = errors.New("no image file generated")
)

// MistralService talks to the Mistral agents API: it registers a reusable
// image-generation agent, opens conversation turns against it, and downloads
// generated files. The agent id is cached through the credential store.
type MistralService struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialStore
}

// NewMistralService creates a provider client. An empty baseURL selects the
// public API; tests point it at a local server. A nil client gets a sane
// default timeout.
func NewMistralService(creds CredentialStore, baseURL string, client *http.Client) *MistralService {
	if baseURL == "" {
		baseURL = DefaultMistralBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &MistralService{
		baseURL:    baseURL,
		httpClient: client,
		creds:      creds,
	}
}

type mistralAgent struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Name  string `json:"name"`
}

type mistralContentChunk struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Tool     string `json:"tool,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

type mistralOutput struct {
	Type    string                `json:"type"`
	Content []mistralContentChunk `json:"content,omitempty"`
}

type mistralConversationResponse struct {
	ConversationID string          `json:"conversation_id"`
	Outputs        []mistralOutput `json:"outputs"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// createImageAgent registers the Dreamy agent and caches its id.
func (s *MistralService) createImageAgent(ctx context.Context) (string, error) {
	payload := map[string]interface{}{
		"model":        imageAgentModel,
		"name":         "Dreamy",
		"description":  "Agent specialized in generating dream-like, surreal images.",
		"instructions": imageAgentInstructions,
		"tools":        []map[string]string{{"type": "image_generation"}},
		"completion_args": map[string]float64{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	}

	var agent mistralAgent
	if err := s.postJSON(ctx, "/agents", payload, &agent); err != nil {
		return "", fmt.Errorf("failed to create image agent: %w", err)
	}

	if err := s.creds.StoreAgentID(agent.ID); err != nil {
		return "", err
	}
	return agent.ID, nil
}

// getOrCreateImageAgent returns the cached agent id, lazily registering the
// agent on first use.
func (s *MistralService) getOrCreateImageAgent(ctx context.Context) (string, error) {
	if id, ok := s.creds.AgentID(); ok {
		return id, nil
	}
	return s.createImageAgent(ctx)
}

// GenerateDreamImage runs one conversation turn against the image agent and
// returns the raw bytes of the generated file. The three provider calls are
// strictly ordered: agent, conversation, file download.
func (s *MistralService) GenerateDreamImage(ctx context.Context, prompt string) ([]byte, error) {
	if !s.creds.HasAPIKey() {
		return nil, ErrAPIKeyNotConfigured
	}

	agentID, err := s.getOrCreateImageAgent(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"agent_id": agentID,
		"inputs":   fmt.Sprintf("Generate a dream image: %s", prompt),
		"stream":   false,
	}

	var conversation mistralConversationResponse
	if err := s.postJSON(ctx, "/conversations", payload, &conversation); err != nil {
		return nil, fmt.Errorf("conversation failed: %w", err)
	}

	fileID := ""
	for _, output := range conversation.Outputs {
		for _, chunk := range output.Content {
			if chunk.Type == "tool_file" && chunk.FileID != "" {
				fileID = chunk.FileID
				break
			}
		}
		if fileID != "" {
			break
		}
	}
	if fileID == "" {
		return nil, ErrNoImageGenerated
	}

	return s.downloadFile(ctx, fileID)
}

// downloadFile fetches the raw bytes for a generated file id.
func (s *MistralService) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.creds.APIKey())
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: unexpected status code %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// ValidateKey checks an arbitrary credential against the models endpoint
// before it is saved. Never errors: any failure means the key is unusable.
func (s *MistralService) ValidateKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Mistral connectivity test failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// TestConnection validates the currently configured credential.
func (s *MistralService) TestConnection(ctx context.Context) bool {
	return s.ValidateKey(ctx, s.creds.APIKey())
}

// postJSON sends an authenticated JSON request and decodes the response into
// out. Non-2xx responses surface the provider's error message when present.
func (s *MistralService) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.creds.APIKey())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr mistralErrorResponse
		message := "Unknown error"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return fmt.Errorf("status %d - %s", resp.StatusCode, message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
