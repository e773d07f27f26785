package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var first, second []Event
	bus.Subscribe(func(_ context.Context, evt Event) {
		mu.Lock()
		first = append(first, evt)
		mu.Unlock()
	})
	bus.Subscribe(func(_ context.Context, evt Event) {
		mu.Lock()
		second = append(second, evt)
		mu.Unlock()
	})

	bus.Publish(Event{Type: TypeMatchCreated, MatchID: 1, RoomRef: "match_1", PlayerID: 7})
	bus.Publish(Event{Type: TypeMemberJoined, MatchID: 1, RoomRef: "match_1", PlayerID: 8})
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("deliveries = %d/%d, want 2/2", len(first), len(second))
	}
	if first[0].Type != TypeMatchCreated || first[1].Type != TypeMemberJoined {
		t.Errorf("delivery order = %v, %v", first[0].Type, first[1].Type)
	}
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus()

	got := make(chan Event, 1)
	bus.Subscribe(func(_ context.Context, evt Event) {
		panic("boom")
	})
	bus.Subscribe(func(_ context.Context, evt Event) {
		got <- evt
	})

	bus.Publish(Event{Type: TypeMemberLeft, MatchID: 3, PlayerID: 9})

	select {
	case evt := <-got:
		if evt.MatchID != 3 {
			t.Errorf("match id = %d, want 3", evt.MatchID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second handler never ran after first panicked")
	}
	bus.Close()
}

func TestBusDropsWhenFull(t *testing.T) {
	// No dispatcher consumption race: the single subscriber blocks until
	// released, so everything beyond the buffer plus the in-flight event
	// must be dropped rather than block Publish.
	bus := NewBus()
	release := make(chan struct{})
	var mu sync.Mutex
	delivered := 0
	bus.Subscribe(func(_ context.Context, _ Event) {
		<-release
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			bus.Publish(Event{Type: TypeMemberJoined, MatchID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}

	close(release)
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if delivered == 0 || delivered > defaultBuffer+1 {
		t.Errorf("delivered = %d, want between 1 and %d", delivered, defaultBuffer+1)
	}
}

func TestBusCloseIsIdempotent(t *testing.T) {
	bus := NewBus()
	bus.Close()
	bus.Close()
}
