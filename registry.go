package main

import "sync"

// RoomRegistry maps normalized room names to live rooms. Rooms are
// created lazily on first join and destroyed when the last occupant
// leaves — at which point both room timers are released.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomRegistry creates an empty registry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for a normalized name, starting a new
// one if needed. Callers must normalize at the boundary.
func (rr *RoomRegistry) GetOrCreate(name string) *Room {
	if name == "" {
		return nil
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.getOrCreateLocked(name)
}

func (rr *RoomRegistry) getOrCreateLocked(name string) *Room {
	if r, ok := rr.rooms[name]; ok {
		return r
	}
	r := NewRoom(name)
	rr.rooms[name] = r
	go r.Run()
	return r
}

// Join adds a player to a room, creating it if needed. Lookup, creation
// and the occupancy increase happen under the registry lock, so a
// concurrent last-leave teardown can never strand the new player in a
// stopped, deregistered room.
func (rr *RoomRegistry) Join(name, playerID, playerName string) (*Room, *Player) {
	if name == "" {
		return nil, nil
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r := rr.getOrCreateLocked(name)
	return r, r.AddPlayer(playerID, playerName)
}

// Get returns a room or nil
func (rr *RoomRegistry) Get(name string) *Room {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.rooms[name]
}

// RemovePlayer removes a player from a room, tearing the room down when
// it becomes empty. The registry lock is held across the remove and the
// teardown so no room is created or joined between the empty-check and
// the delete. A missing room is a silent no-op.
func (rr *RoomRegistry) RemovePlayer(name, playerID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[name]
	if !ok {
		return
	}
	if room.RemovePlayer(playerID) > 0 {
		return
	}
	room.Stop()
	delete(rr.rooms, name)
}

// Count returns the number of live rooms
func (rr *RoomRegistry) Count() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}
