package chat

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/api/actor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking happens at the gateway.
		return true
	},
}

// HandleWebSocket upgrades the connection and attaches the caller to a chat
// room. Only room participants may connect.
func (m *Mirror) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	act := actor.FromContext(r.Context())
	if act == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomRef := r.URL.Query().Get("room")
	if roomRef == "" {
		http.Error(w, "Room is required", http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	room, ok := m.rooms[roomRef]
	allowed := ok && room.participants[act.ID]
	m.mu.RUnlock()
	if !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to upgrade chat connection")
		return
	}

	client := &Client{
		Hub:      m.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		PlayerID: act.ID,
		RoomRef:  roomRef,
	}
	m.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
