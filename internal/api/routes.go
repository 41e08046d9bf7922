package api

import (
	"errors"
	"net/http"
	"time"

	apperrors "dream_journal_go_backend/internal/errors"
	"dream_journal_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	generationService *services.GenerationService,
	dreamStore services.DreamStore,
	chatSessions services.ChatSessionManager,
	mistralService services.ImageGenerator,
	credentialService services.CredentialStore,
	exportService *services.ExportService,
) {
	api := r.Group("/api")
	{
		api.GET("/dreams", getDreamsHandler(dreamStore))
		api.GET("/dreams/dates", getDreamDatesHandler(dreamStore))
		api.GET("/dreams/date/:date", getDreamByDateHandler(dreamStore))
		api.GET("/dreams/export", exportJournalHandler(exportService))
		api.DELETE("/dreams/:id", deleteDreamHandler(dreamStore))
		api.DELETE("/dreams", clearDreamsHandler(dreamStore))

		api.GET("/chat/:date/messages", getTranscriptHandler(chatSessions))
		api.POST("/chat/:date/messages", sendDreamHandler(generationService))
		api.POST("/chat/:date/accept", acceptImageHandler(generationService))
		api.POST("/chat/:date/regenerate", regenerateImageHandler(generationService))
		api.DELETE("/chat/:date", endSessionHandler(chatSessions))

		api.GET("/settings", getSettingsHandler(credentialService))
		api.PUT("/settings/api-key", setAPIKeyHandler(mistralService, credentialService))
	}
}

// sessionDate validates the :date path segment. Sessions and dreams key off
// the exact YYYY-MM-DD string, so anything else is rejected up front.
func sessionDate(c *gin.Context) (string, bool) {
	raw := c.Param("date")
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		apperrors.HandleError(c, apperrors.New400Error("date must be in YYYY-MM-DD format"))
		return "", false
	}
	return raw, true
}

func getTranscriptHandler(chatSessions services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		// Opening the chat starts the session, which seeds the welcome message.
		chatSessions.EnsureSession(date)
		c.JSON(http.StatusOK, gin.H{"messages": chatSessions.Transcript(date)})
	}
}

func sendDreamHandler(generationService *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		var request struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		messages, err := generationService.Submit(c.Request.Context(), date, request.Text)
		if err != nil {
			if errors.Is(err, services.ErrEmptyDreamText) {
				apperrors.HandleError(c, apperrors.New400Error("dream text is empty"))
				return
			}
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

func acceptImageHandler(generationService *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		var request struct {
			MessageID string `json:"message_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		if err := generationService.Accept(date, request.MessageID); err != nil {
			switch {
			case errors.Is(err, services.ErrMessageNotFound), errors.Is(err, services.ErrDreamNotFound):
				apperrors.HandleError(c, apperrors.New404Error(err.Error()))
			case errors.Is(err, services.ErrNoImageInMessage):
				apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			default:
				apperrors.HandleError(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Image accepted"})
	}
}

func regenerateImageHandler(generationService *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		var request struct {
			MessageID string `json:"message_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		messages, err := generationService.Regenerate(c.Request.Context(), date, request.MessageID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrMessageNotFound):
				apperrors.HandleError(c, apperrors.New404Error(err.Error()))
			case errors.Is(err, services.ErrNoImageInMessage):
				apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			default:
				apperrors.HandleError(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

func endSessionHandler(chatSessions services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		chatSessions.EndSession(date)
		c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
	}
}

func getSettingsHandler(credentialService services.CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"has_api_key": credentialService.HasAPIKey()})
	}
}

func setAPIKeyHandler(mistralService services.ImageGenerator, credentialService services.CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			APIKey string `json:"api_key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		// The credential is checked against the provider before it is saved.
		if !mistralService.ValidateKey(c.Request.Context(), request.APIKey) {
			apperrors.HandleError(c, apperrors.New400Error("API key failed the connectivity test"))
			return
		}

		if err := credentialService.SetAPIKey(request.APIKey); err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "API key saved"})
	}
}
