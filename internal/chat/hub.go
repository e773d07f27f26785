package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed
	maxMessageSize = 4096
)

// Hub maintains the set of active clients per chat room and routes messages
// between them.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	runOnce sync.Once
}

// Client represents one websocket connection bound to a room.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	PlayerID int64
	RoomRef  string
}

// Message is the wire format exchanged over a room's websocket.
type Message struct {
	Type     string `json:"type"`
	RoomRef  string `json:"room_ref"`
	PlayerID int64  `json:"player_id"`
	Content  string `json:"content,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's registration loop. Only the first call runs the loop;
// typically run in its own goroutine from server startup.
func (h *Hub) Run() {
	started := false
	h.runOnce.Do(func() { started = true })
	if !started {
		return
	}

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if h.rooms[client.RoomRef] == nil {
				h.rooms[client.RoomRef] = make(map[*Client]bool)
			}
			h.rooms[client.RoomRef][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if room, ok := h.rooms[client.RoomRef]; ok {
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.RoomRef)
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends a message to every client connected to roomRef.
// Clients with a full send buffer are dropped.
func (h *Hub) BroadcastToRoom(roomRef string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[roomRef] {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
			delete(h.rooms[roomRef], client)
		}
	}
}

// ReadPump pumps messages from the websocket connection into the room.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Int64("player_id", c.PlayerID).Msg("Unexpected websocket close")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		// The connection owns the identity; clients cannot spoof either field.
		msg.PlayerID = c.PlayerID
		msg.RoomRef = c.RoomRef
		if msg.Type == "" {
			msg.Type = "chat"
		}

		out, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		c.Hub.BroadcastToRoom(c.RoomRef, out)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
