// Package chat mirrors roster membership into realtime chat rooms. The
// mirror is a best-effort collaborator: every entry point swallows its own
// failures, and roster mutations never wait on it.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/events"
)

var errRoomNotFound = errors.New("chat room not found")

type room struct {
	matchID      int64
	participants map[int64]bool
}

// Mirror keeps a per-room participant list in sync with team membership and
// pushes roster updates to connected websocket clients.
type Mirror struct {
	hub *Hub

	mu    sync.RWMutex
	rooms map[string]*room
}

func NewMirror(hub *Hub) *Mirror {
	return &Mirror{
		hub:   hub,
		rooms: make(map[string]*room),
	}
}

// CreateRoom initializes a room with the creator as its first participant.
func (m *Mirror) CreateRoom(roomRef string, matchID, creatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[roomRef]; ok {
		return nil
	}
	m.rooms[roomRef] = &room{
		matchID:      matchID,
		participants: map[int64]bool{creatorID: true},
	}
	return nil
}

// AddParticipant adds the player to the room's participant list.
func (m *Mirror) AddParticipant(roomRef string, playerID int64) error {
	m.mu.Lock()
	r, ok := m.rooms[roomRef]
	if !ok {
		m.mu.Unlock()
		return errRoomNotFound
	}
	r.participants[playerID] = true
	m.mu.Unlock()

	m.broadcastRoster("participant_added", roomRef, playerID)
	return nil
}

// RemoveParticipant drops the player from the room's participant list.
func (m *Mirror) RemoveParticipant(roomRef string, playerID int64) error {
	m.mu.Lock()
	r, ok := m.rooms[roomRef]
	if !ok {
		m.mu.Unlock()
		return errRoomNotFound
	}
	delete(r.participants, playerID)
	m.mu.Unlock()

	m.broadcastRoster("participant_removed", roomRef, playerID)
	return nil
}

// Participants returns the player IDs currently in the room, sorted.
func (m *Mirror) Participants(roomRef string) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomRef]
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HandleEvent is the bus subscriber. Failures are logged, never returned:
// the roster store already committed before the event was published.
func (m *Mirror) HandleEvent(ctx context.Context, evt events.Event) {
	if evt.RoomRef == "" {
		return
	}

	var err error
	switch evt.Type {
	case events.TypeMatchCreated:
		err = m.CreateRoom(evt.RoomRef, evt.MatchID, evt.PlayerID)
	case events.TypeMemberJoined:
		err = m.AddParticipant(evt.RoomRef, evt.PlayerID)
	case events.TypeMemberLeft:
		err = m.RemoveParticipant(evt.RoomRef, evt.PlayerID)
	default:
		return
	}

	if err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", string(evt.Type)).
			Str("room_ref", evt.RoomRef).
			Int64("player_id", evt.PlayerID).
			Msg("Chat mirror update failed")
	}
}

func (m *Mirror) broadcastRoster(msgType, roomRef string, playerID int64) {
	if m.hub == nil {
		return
	}
	msg, err := json.Marshal(Message{
		Type:     msgType,
		RoomRef:  roomRef,
		PlayerID: playerID,
	})
	if err != nil {
		log.Warn().Err(err).Str("room_ref", roomRef).Msg("Failed to marshal roster update")
		return
	}
	m.hub.BroadcastToRoom(roomRef, msg)
}
