package daemon

import (
	"sync"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const defaultSubscriberBuffer = 64

// EventHub fans controller events out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type EventHub struct {
	mu      sync.Mutex
	subs    map[int]chan types.Event
	nextID  int
	dropped int
	logger  logging.Logger
}

func NewEventHub(logger logging.Logger) *EventHub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &EventHub{subs: map[int]chan types.Event{}, logger: logger}
}

// Subscribe returns a channel of events and a function that closes it.
func (h *EventHub) Subscribe(buffer int) (<-chan types.Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan types.Event, buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *EventHub) Publish(event types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.dropped++
			h.logger.Debug("event_dropped", logging.F("subscriber", id), logging.F("type", event.Type))
		}
	}
}

func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *EventHub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
