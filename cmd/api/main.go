package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"dream_journal_go_backend/cmd/api/config"
	"dream_journal_go_backend/internal/api"
	"dream_journal_go_backend/internal/database"
	"dream_journal_go_backend/internal/services"
	"dream_journal_go_backend/internal/utils/broker"
	"dream_journal_go_backend/internal/wsocket"

	"github.com/gorilla/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	database.InitDB()

	cfg := config.NewConfig()

	imageDir := os.Getenv("IMAGE_DIR")
	if imageDir == "" {
		imageDir = cfg.ImageDir
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Initialize internal services
	storageServiceDB := services.NewStorageServiceDB(database.DB)

	credentialService, err := services.NewCredentialService(storageServiceDB)
	if err != nil {
		log.Fatalf("Failed to load credentials: %v", err)
	}

	mistralService := services.NewMistralService(
		credentialService,
		os.Getenv("MISTRAL_BASE_URL"),
		&http.Client{Timeout: cfg.ProviderTimeout},
	)

	imageService, err := services.NewLocalImageService(imageDir)
	if err != nil {
		log.Fatalf("Failed to prepare image directory: %v", err)
	}

	dreamService, err := services.NewDreamService(storageServiceDB, time.Now, rng)
	if err != nil {
		log.Fatalf("Failed to load dream journal: %v", err)
	}

	chatSessionService := services.NewChatSessionService(time.Now)

	chatEvents := broker.NewBroker[services.ChatEvent]()

	generationService := services.NewGenerationService(
		dreamService,
		chatSessionService,
		mistralService,
		credentialService,
		imageService,
		chatEvents,
		rng,
		cfg.MockImageDelay,
		cfg.ImageBaseURL,
	)

	exportService := services.NewExportService(dreamService, imageService, cfg.ImageBaseURL)

	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173" // Default to your local frontend
	}

	// CORS middleware configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Generated images are served straight from disk
	r.Static(cfg.ImageBaseURL, imageDir)

	// WebSocket upgrader
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: Implement a more secure check in production
		},
	}

	// Create WebSocket handler
	wsHandler := wsocket.NewHandler(generationService, chatSessionService, chatEvents, upgrader)

	api.SetupRoutes(r, generationService, dreamService, chatSessionService, mistralService, credentialService, exportService)

	// Add WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
