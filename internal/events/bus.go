// Package events carries roster and lifecycle notifications to best-effort
// consumers. Publishing never blocks a mutation: the buffer is bounded and an
// overflowing event is dropped with a warning rather than stalling the caller.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	TypeMatchCreated Type = "match_created"
	TypeMemberJoined Type = "member_joined"
	TypeMemberLeft   Type = "member_left"
)

// Event describes a roster change. RoomRef is the chat room tied to the
// match, when one exists.
type Event struct {
	Type     Type
	MatchID  int64
	RoomRef  string
	PlayerID int64
}

type Handler func(ctx context.Context, evt Event)

const defaultBuffer = 256

// Bus is an in-process asynchronous dispatcher. Handler failures and panics
// never reach publishers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler

	ch        chan Event
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewBus() *Bus {
	b := &Bus{ch: make(chan Event, defaultBuffer)}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish enqueues evt without blocking. If the buffer is full the event is
// dropped; the roster store remains the source of truth, so a dropped event
// only delays the mirror.
func (b *Bus) Publish(evt Event) {
	select {
	case b.ch <- evt:
	default:
		log.Warn().
			Str("event_type", string(evt.Type)).
			Int64("match_id", evt.MatchID).
			Msg("Event buffer full, dropping event")
	}
}

// Close stops dispatching after draining queued events.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
	})
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for evt := range b.ch {
		b.mu.RLock()
		handlers := make([]Handler, len(b.handlers))
		copy(handlers, b.handlers)
		b.mu.RUnlock()

		for _, h := range handlers {
			b.deliver(h, evt)
		}
	}
}

func (b *Bus) deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("event_type", string(evt.Type)).
				Int64("match_id", evt.MatchID).
				Msg("Event handler panicked")
		}
	}()
	h(context.Background(), evt)
}
