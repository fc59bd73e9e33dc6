package daemon

import (
	"testing"

	"casenotify/internal/types"
)

func TestEventHubFansOut(t *testing.T) {
	hub := NewEventHub(nil)
	a, cancelA := hub.Subscribe(4)
	defer cancelA()
	b, cancelB := hub.Subscribe(4)
	defer cancelB()

	hub.Publish(types.Event{Type: types.EventState})

	for _, ch := range []<-chan types.Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != types.EventState {
				t.Fatalf("unexpected event %+v", ev)
			}
		default:
			t.Fatalf("subscriber missed the event")
		}
	}
	if hub.Subscribers() != 2 {
		t.Fatalf("subscribers = %d", hub.Subscribers())
	}
}

func TestEventHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewEventHub(nil)
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(types.Event{Type: "first"})
	hub.Publish(types.Event{Type: "second"})

	if hub.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", hub.Dropped())
	}
	if ev := <-ch; ev.Type != "first" {
		t.Fatalf("got %q, want first", ev.Type)
	}
}

func TestEventHubCancelClosesChannel(t *testing.T) {
	hub := NewEventHub(nil)
	ch, cancel := hub.Subscribe(0)

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after cancel")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("subscriber not removed")
	}
	hub.Publish(types.Event{Type: types.EventState})
}
