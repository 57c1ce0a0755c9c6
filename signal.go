package main

import "sync"

const maxSignalPeers = 2

// SignalRegistry relays WebRTC handshake payloads between the two peers
// of a signaling room. The server never inspects payloads — it only
// forwards them, so there is no state beyond room membership.
type SignalRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[string]Broadcaster
}

// NewSignalRegistry creates an empty registry
func NewSignalRegistry() *SignalRegistry {
	return &SignalRegistry{rooms: make(map[string]map[string]Broadcaster)}
}

// Join attaches a connection to a signaling room. Returns false when
// the room already holds two peers.
func (sr *SignalRegistry) Join(room, connID string, client Broadcaster) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	peers, ok := sr.rooms[room]
	if !ok {
		peers = make(map[string]Broadcaster, maxSignalPeers)
		sr.rooms[room] = peers
	}
	if _, member := peers[connID]; !member && len(peers) >= maxSignalPeers {
		return false
	}
	peers[connID] = client
	return true
}

// Leave detaches a connection, dropping the room when it empties
func (sr *SignalRegistry) Leave(room, connID string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	peers, ok := sr.rooms[room]
	if !ok {
		return
	}
	delete(peers, connID)
	if len(peers) == 0 {
		delete(sr.rooms, room)
	}
}

// Relay forwards a signal payload to every other peer in the room.
// Unknown rooms and non-member senders are silent no-ops.
func (sr *SignalRegistry) Relay(room, fromID string, msg SignalMsg) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	peers, ok := sr.rooms[room]
	if !ok {
		return
	}
	if _, member := peers[fromID]; !member {
		return
	}
	msg.From = fromID
	for id, peer := range peers {
		if id == fromID {
			continue
		}
		peer.SendJSON(Envelope{T: MsgSignal, Data: msg})
	}
}
