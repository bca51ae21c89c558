package domain

import "sync"

// RoomState holds the single active room of the process, if any.
// Swarm results carry a sequence number so that a slow caller cannot
// roll the state back to a room the swarm already left.
type RoomState struct {
	mu     sync.RWMutex
	topic  string
	active bool
	seq    uint64
}

func NewRoomState() *RoomState {
	return &RoomState{}
}

func (r *RoomState) Current() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topic, r.active
}

func (r *RoomState) Set(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topic = topic
	r.active = true
}

// Apply records the room of a swarm result unless a newer result was
// applied already. It reports whether the state changed.
func (r *RoomState) Apply(result RoomResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result.Seq < r.seq {
		return false
	}
	r.seq = result.Seq
	r.topic = result.Topic
	r.active = true
	return true
}

func (r *RoomState) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topic = ""
	r.active = false
}
