package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/kotc-scoreboard/realtime"
	"github.com/Dosada05/kotc-scoreboard/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var roomTopics = map[string]services.Topic{
	realtime.RoomCup:    services.TopicCup,
	realtime.RoomLeague: services.TopicLeague,
}

type WebSocketHandler struct {
	hub      *realtime.Hub
	notifier services.Notifier
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, notifier services.Notifier, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "ws_handler")),
	}
}

// ServeWs handles GET /ws/{room}. Clients join "cup" or "league" and receive
// a fresh snapshot right after connecting.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	topic, ok := roomTopics[room]
	if !ok {
		notFoundResponse(w, r, "unknown room")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("client joined room", slog.String("room", room))
	h.notifier.Publish(topic)
}
