package wsocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dream_journal_go_backend/internal/models"
	"dream_journal_go_backend/internal/services"
	"dream_journal_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
)

// Handler bridges a chat session to a websocket connection: inbound frames
// drive the generation pipeline, transcript changes are pushed back out
// through the broker.
type Handler struct {
	generationService *services.GenerationService
	chatSessions      services.ChatSessionManager
	events            *broker.Broker[services.ChatEvent]
	upgrader          websocket.Upgrader
}

// Message is the wire envelope in both directions.
type Message struct {
	Type      string               `json:"type"`
	Content   string               `json:"content,omitempty"`
	Date      string               `json:"date"`
	MessageID string               `json:"messageId,omitempty"`
	Message   *models.ChatMessage  `json:"message,omitempty"`
	Messages  []models.ChatMessage `json:"messages,omitempty"`
}

func NewHandler(
	generationService *services.GenerationService,
	chatSessions services.ChatSessionManager,
	events *broker.Broker[services.ChatEvent],
	upgrader websocket.Upgrader,
) *Handler {
	return &Handler{
		generationService: generationService,
		chatSessions:      chatSessions,
		events:            events,
		upgrader:          upgrader,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writes to the connection are serialized through a single goroutine.
	outbound := make(chan Message, 16)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("Error writing websocket message: %v", err)
					cancel()
					return
				}
			}
		}
	}()

	// Opening the socket opens the session and replays its transcript.
	h.chatSessions.EnsureSession(date)
	outbound <- Message{
		Type:     "transcript",
		Date:     date,
		Messages: h.chatSessions.Transcript(date),
	}

	eventCh := h.events.Subscribe(services.ChatTopic(date))
	defer h.events.Unsubscribe(services.ChatTopic(date), eventCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				msg := Message{Type: event.Type, Date: date}
				if event.Type == services.EventMessage {
					m := event.Message
					msg.Message = &m
				}
				select {
				case outbound <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error unmarshaling websocket message: %v", err)
			continue
		}

		switch msg.Type {
		case "dream":
			// Generation can take a while; keep the read loop responsive and
			// let transcript updates flow back through the broker.
			go func(text string) {
				if _, err := h.generationService.Submit(ctx, date, text); err != nil {
					outbound <- Message{Type: "error", Date: date, Content: err.Error()}
				}
			}(msg.Content)
		case "accept":
			if err := h.generationService.Accept(date, msg.MessageID); err != nil {
				outbound <- Message{Type: "error", Date: date, Content: err.Error()}
			} else {
				outbound <- Message{Type: "accepted", Date: date, MessageID: msg.MessageID}
			}
		case "regenerate":
			go func(messageID string) {
				if _, err := h.generationService.Regenerate(ctx, date, messageID); err != nil {
					outbound <- Message{Type: "error", Date: date, Content: err.Error()}
				}
			}(msg.MessageID)
		case "end":
			h.chatSessions.EndSession(date)
			return
		default:
			log.Printf("Unknown websocket message type: %s", msg.Type)
		}
	}
}
