package realtime

import "sync"

// Event is a named payload broadcast to a room, e.g. "activity:created"
// to "department:<id>".
type Event struct {
	Name    string
	Payload any
}

const subscriberBuffer = 16

// Hub is an in-process room-based broadcaster. Publish never blocks: a
// subscriber that cannot keep up drops events rather than stalling the
// publisher.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{})}
}

// Subscribe joins a room. The returned cancel func leaves the room and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(room string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.rooms[room] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.rooms[room]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.rooms, room)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every current subscriber of the room.
func (h *Hub) Publish(room string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[room] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// DepartmentRoom names the room carrying one department's activity feed.
func DepartmentRoom(departmentID string) string {
	return "department:" + departmentID
}
