package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dream_journal_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeMistral is an httptest stand-in for the agents API. It records which
// endpoints were hit so tests can assert on the call sequence.
type fakeMistral struct {
	agentCreates  int
	conversations int
	downloads     int

	conversationBody map[string]interface{}
	fileID           string
	imageBytes       []byte
	failConversation bool
}

func (f *fakeMistral) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/agents":
			f.agentCreates++
			json.NewEncoder(w).Encode(map[string]string{"id": "agent-test-1", "model": "mistral-medium-2505", "name": "Dreamy"})
		case r.Method == http.MethodPost && r.URL.Path == "/conversations":
			f.conversations++
			if f.failConversation {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{"message": "invalid agent"},
				})
				return
			}
			json.NewDecoder(r.Body).Decode(&f.conversationBody)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"conversation_id": "conv-1",
				"outputs": []map[string]interface{}{
					{
						"type": "message.output",
						"content": []map[string]string{
							{"type": "text", "text": "Here is your dream."},
							{"type": "tool_file", "tool": "image_generation", "file_id": f.fileID, "file_name": "dream.png", "file_type": "png"},
						},
					},
				},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/files/"+f.fileID+"/content":
			f.downloads++
			w.Write(f.imageBytes)
		case r.Method == http.MethodGet && r.URL.Path == "/models":
			if r.Header.Get("Authorization") == "Bearer sk-valid" {
				json.NewEncoder(w).Encode(map[string]interface{}{"data": []string{}})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestGenerateDreamImage(t *testing.T) {
	t.Run("creates the agent on first use and downloads the file", func(t *testing.T) {
		// Setup
		fake := &fakeMistral{fileID: "file-42", imageBytes: []byte("image-bytes")}
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		creds := new(MockCredentialStore)
		creds.On("HasAPIKey").Return(true)
		creds.On("APIKey").Return("sk-valid")
		creds.On("AgentID").Return("", false).Once()
		creds.On("StoreAgentID", "agent-test-1").Return(nil).Once()

		mistralService := services.NewMistralService(creds, server.URL, server.Client())

		// Execute
		data, err := mistralService.GenerateDreamImage(context.Background(), "a glass city in the clouds")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)
		assert.Equal(t, 1, fake.agentCreates)
		assert.Equal(t, 1, fake.conversations)
		assert.Equal(t, 1, fake.downloads)
		assert.Equal(t, "agent-test-1", fake.conversationBody["agent_id"])
		assert.Equal(t, "Generate a dream image: a glass city in the clouds", fake.conversationBody["inputs"])
		assert.Equal(t, false, fake.conversationBody["stream"])
		creds.AssertExpectations(t)
	})

	t.Run("reuses a cached agent id", func(t *testing.T) {
		// Setup
		fake := &fakeMistral{fileID: "file-7", imageBytes: []byte("cached-agent-image")}
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		creds := new(MockCredentialStore)
		creds.On("HasAPIKey").Return(true)
		creds.On("APIKey").Return("sk-valid")
		creds.On("AgentID").Return("agent-cached", true)

		mistralService := services.NewMistralService(creds, server.URL, server.Client())

		// Execute
		data, err := mistralService.GenerateDreamImage(context.Background(), "a quiet desert")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []byte("cached-agent-image"), data)
		assert.Equal(t, 0, fake.agentCreates)
		assert.Equal(t, "agent-cached", fake.conversationBody["agent_id"])
		creds.AssertNotCalled(t, "StoreAgentID", mock.Anything)
	})

	t.Run("surfaces the provider error message", func(t *testing.T) {
		// Setup
		fake := &fakeMistral{failConversation: true}
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		creds := new(MockCredentialStore)
		creds.On("HasAPIKey").Return(true)
		creds.On("APIKey").Return("sk-valid")
		creds.On("AgentID").Return("agent-cached", true)

		mistralService := services.NewMistralService(creds, server.URL, server.Client())

		// Execute
		_, err := mistralService.GenerateDreamImage(context.Background(), "a dream")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
		assert.Contains(t, err.Error(), "invalid agent")
	})

	t.Run("no file in the response", func(t *testing.T) {
		// Setup: fileID stays empty, so the tool_file chunk carries no id.
		fake := &fakeMistral{}
		server := httptest.NewServer(fake.handler())
		defer server.Close()

		creds := new(MockCredentialStore)
		creds.On("HasAPIKey").Return(true)
		creds.On("APIKey").Return("sk-valid")
		creds.On("AgentID").Return("agent-cached", true)

		mistralService := services.NewMistralService(creds, server.URL, server.Client())

		// Execute
		_, err := mistralService.GenerateDreamImage(context.Background(), "a dream")

		// Assert
		assert.ErrorIs(t, err, services.ErrNoImageGenerated)
	})

	t.Run("missing credential short-circuits", func(t *testing.T) {
		// Setup
		creds := new(MockCredentialStore)
		creds.On("HasAPIKey").Return(false)

		mistralService := services.NewMistralService(creds, "http://unused.invalid", nil)

		// Execute
		_, err := mistralService.GenerateDreamImage(context.Background(), "a dream")

		// Assert
		assert.ErrorIs(t, err, services.ErrAPIKeyNotConfigured)
	})
}

func TestValidateKey(t *testing.T) {
	// Setup
	fake := &fakeMistral{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	creds := new(MockCredentialStore)
	mistralService := services.NewMistralService(creds, server.URL, server.Client())

	t.Run("accepted key", func(t *testing.T) {
		assert.True(t, mistralService.ValidateKey(context.Background(), "sk-valid"))
	})

	t.Run("rejected key", func(t *testing.T) {
		assert.False(t, mistralService.ValidateKey(context.Background(), "sk-wrong"))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.False(t, mistralService.ValidateKey(context.Background(), ""))
	})
}

func TestTestConnection(t *testing.T) {
	// Setup
	fake := &fakeMistral{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	creds := new(MockCredentialStore)
	creds.On("APIKey").Return("sk-valid")

	mistralService := services.NewMistralService(creds, server.URL, server.Client())

	// Execute and Assert
	assert.True(t, mistralService.TestConnection(context.Background()))
}
