package registry

import "sync"

// Registry is a thread-safe, in-memory map of room membership. It tracks the
// relation in both directions so that membership lookup and full-connection
// teardown are both O(memberships).
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room key → member connection IDs
	conns map[string]map[string]struct{} // connection ID → joined room keys
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds connID to room. Joining a room the connection is already a member
// of is a no-op.
func (r *Registry) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][connID] = struct{}{}

	if r.conns[connID] == nil {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][room] = struct{}{}
}

// Leave removes connID from room. Leaving a room the connection is not a
// member of is a no-op.
func (r *Registry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// DropConnection removes connID from every room it has joined. Called on
// disconnect; safe to call for an unknown connection.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.conns[connID] {
		r.leaveLocked(connID, room)
	}
}

// MembersOf returns the current members of room. Unknown or empty rooms yield
// an empty slice, not an error. The result is a copy and safe to iterate while
// the registry changes.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		members = append(members, id)
	}
	return members
}

// Rooms returns the rooms connID has joined. The result is a copy.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.conns[connID]))
	for room := range r.conns[connID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// leaveLocked removes one membership edge and garbage-collects empty sets.
// Callers must hold r.mu.
func (r *Registry) leaveLocked(connID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.conns[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.conns, connID)
		}
	}
}
