package main

import (
	"math"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate     = 45 // physics ticks per second
	TickDuration = time.Second / TickRate
)

// Broadcaster delivers events to one connection
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Room is one isolated simulation: its own arena, entities, match state
// and timers. All mutation happens under mu, from the room's own tick
// goroutine or from event handlers, so a handler's effect is always
// visible to the next tick.
type Room struct {
	Name string

	mu      sync.Mutex
	arena   *Arena
	players map[string]*Player
	bullets map[string]*Bullet
	clients map[string]Broadcaster
	seq     uint64
	match   Match

	simTicker *time.Ticker
	countdown *time.Ticker
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewRoom creates a room with a freshly generated arena. The countdown
// ticker starts stopped; match start resets it, match end stops it.
func NewRoom(name string) *Room {
	r := &Room{
		Name:      name,
		arena:     GenerateArena(),
		players:   make(map[string]*Player),
		bullets:   make(map[string]*Bullet),
		clients:   make(map[string]Broadcaster),
		match:     NewMatch(),
		simTicker: time.NewTicker(TickDuration),
		countdown: time.NewTicker(time.Second),
		stop:      make(chan struct{}),
	}
	r.countdown.Stop()
	return r
}

// Run drives the room until Stop. Simulation and countdown ticks are
// handled on this single goroutine, so the two timers never race each
// other over match state.
func (r *Room) Run() {
	for {
		select {
		case <-r.stop:
			return
		case <-r.simTicker.C:
			r.step()
		case <-r.countdown.C:
			r.tickCountdown()
		}
	}
}

// Stop tears down both timers and terminates Run. Safe to call twice.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.simTicker.Stop()
		r.countdown.Stop()
	})
}

// Arena returns the static obstacle layout
func (r *Room) Arena() *Arena {
	return r.arena
}

// PlayerCount returns the number of occupants
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// AddPlayer creates (or recreates) a player. A returning id keeps its
// kill count so a reconnect during a match does not zero the score.
func (r *Room) AddPlayer(id, name string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := NewPlayer(id, name, r.arena)
	if prev, ok := r.players[id]; ok {
		p.Kills = prev.Kills
	}
	r.players[id] = p
	return p
}

// SetClient associates a broadcaster with a player id
func (r *Room) SetClient(playerID string, client Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[playerID] = client
}

// RemovePlayer deletes a player and returns the remaining occupant
// count. With occupants left, removing a non-ready player can complete
// the all-ready condition and start the match. The caller owns teardown
// when zero is returned.
func (r *Room) RemovePlayer(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return len(r.players)
	}
	delete(r.players, id)
	delete(r.clients, id)

	r.broadcastJSON(Envelope{T: MsgPlayerLeft, Data: map[string]string{"id": id}})
	r.broadcastJSON(Envelope{T: MsgPlayersList, Data: r.playerListLocked()})

	if len(r.players) > 0 {
		r.maybeStartLocked()
	}
	return len(r.players)
}

// ReceiveInput queues an input for the next tick. Inputs arriving while
// no match runs are dropped, not buffered.
func (r *Room) ReceiveInput(id string, in InputMsg) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.match.Running {
		return
	}
	p, ok := r.players[id]
	if !ok {
		return
	}
	in.Turn = Clamp(in.Turn, -1, 1)
	in.Thrust = Clamp(in.Thrust, -1, 1)
	p.queue = append(p.queue, in)
}

// SetReady flips a player's ready flag and starts the match when every
// occupant is ready.
func (r *Room) SetReady(id string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	p.Ready = ready

	r.broadcastJSON(Envelope{T: MsgReadyUpdate, Data: ReadyUpdateMsg{ID: id, Ready: ready}})
	r.broadcastJSON(Envelope{T: MsgPlayersList, Data: r.playerListLocked()})

	r.maybeStartLocked()
}

// BroadcastPlayerList pushes the full player array to the room
func (r *Room) BroadcastPlayerList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastJSON(Envelope{T: MsgPlayersList, Data: r.playerListLocked()})
}

// StartMatch forces a match start (no-op while one is running)
func (r *Room) StartMatch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startMatchLocked()
}

// EndMatch forces a match end (no-op while none is running)
func (r *Room) EndMatch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endMatchLocked()
}

func (r *Room) maybeStartLocked() {
	if r.match.Running || len(r.players) == 0 {
		return
	}
	for _, p := range r.players {
		if !p.Ready {
			return
		}
	}
	r.startMatchLocked()
}

func (r *Room) startMatchLocked() {
	if r.match.Running {
		return
	}
	for _, p := range r.players {
		p.ResetForMatch(r.arena)
	}
	r.bullets = make(map[string]*Bullet)
	r.match.Remaining = r.match.Duration
	r.match.Running = true
	r.countdown.Reset(time.Second)

	r.broadcastJSON(Envelope{T: MsgMatchStart, Data: MatchStartedMsg{MatchDuration: int(r.match.Duration)}})
}

func (r *Room) endMatchLocked() {
	if !r.match.Running {
		return
	}
	r.match.Running = false
	r.countdown.Stop()

	rankings, winner := computeRankings(r.players)
	for _, p := range r.players {
		p.Ready = false
	}
	r.broadcastJSON(Envelope{T: MsgMatchEnded, Data: MatchEndedMsg{Rankings: rankings, Winner: winner}})
}

// tickCountdown fires once per second while a match runs. The decrement
// that would reach zero ends the match instead of broadcasting.
func (r *Room) tickCountdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.match.Running {
		return
	}
	r.match.Remaining -= 1
	if r.match.Remaining <= 0 {
		r.endMatchLocked()
		return
	}
	r.broadcastJSON(Envelope{T: MsgTimerUpdate, Data: int(r.match.Remaining)})
}

// step advances the simulation by one fixed tick. Entirely a no-op
// while no match runs.
func (r *Room) step() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.match.Running {
		return
	}
	dt := 1.0 / float64(TickRate)
	var events []GameEventMsg

	// 1. Apply queued inputs, per player, in arrival order
	for _, p := range r.players {
		for _, in := range p.queue {
			p.Angle += PlayerTurnRate * in.Turn * dt
			p.VX += math.Cos(p.Angle) * PlayerAccel * in.Thrust * dt
			p.VY += math.Sin(p.Angle) * PlayerAccel * in.Thrust * dt

			speed2 := p.VX*p.VX + p.VY*p.VY
			if speed2 > PlayerMaxSpeed*PlayerMaxSpeed {
				scale := PlayerMaxSpeed / math.Sqrt(speed2)
				p.VX *= scale
				p.VY *= scale
			}
			if in.Fire {
				b := NewBullet(p)
				r.bullets[b.ID] = b
			}
			p.LastSeq = in.Seq
		}
		p.queue = p.queue[:0]
	}

	// 2. Player movement: integrate, damp, revert on obstacle hit
	for _, p := range r.players {
		prevX, prevY := p.X, p.Y
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.VX *= PlayerDamping
		p.VY *= PlayerDamping
		if r.arena.Collides(p.X, p.Y, PlayerRadius) {
			p.X, p.Y = prevX, prevY
			p.VX, p.VY = 0, 0
		}
		p.X = Clamp(p.X, 0, r.arena.Width)
		p.Y = Clamp(p.Y, 0, r.arena.Height)
	}

	// 3. Bullet movement and collision
	for id, b := range r.bullets {
		b.X += b.VX * dt
		b.Y += b.VY * dt
		b.Life -= dt
		if b.Life <= 0 {
			delete(r.bullets, id)
			continue
		}
		if r.arena.Collides(b.X, b.Y, BulletRadius) {
			events = append(events, GameEventMsg{Type: EventHit, X: round2(b.X), Y: round2(b.Y), Obstacle: true})
			delete(r.bullets, id)
			continue
		}
		// First player within hit radius wins, in store order
		for pid, p := range r.players {
			if pid == b.OwnerID {
				continue
			}
			dx := p.X - b.X
			dy := p.Y - b.Y
			if dx*dx+dy*dy > PlayerRadius*PlayerRadius {
				continue
			}
			p.HP -= BulletDamage
			delete(r.bullets, id)
			if p.HP <= 0 {
				if owner, ok := r.players[b.OwnerID]; ok {
					owner.Kills++
				}
				hitX, hitY := p.X, p.Y
				p.Respawn(r.arena)
				events = append(events, GameEventMsg{
					Type: EventKilled, Target: pid, By: b.OwnerID,
					X: round2(hitX), Y: round2(hitY),
				})
			} else {
				events = append(events, GameEventMsg{
					Type: EventHit, Target: pid, By: b.OwnerID,
					X: round2(p.X), Y: round2(p.Y),
				})
			}
			break
		}
	}

	// 4. Snapshot broadcast
	for _, evt := range events {
		r.broadcastJSON(Envelope{T: MsgGameEvent, Data: evt})
	}
	r.seq++
	r.broadcastSnapshotLocked()
}

func (r *Room) playerListLocked() []PlayerState {
	list := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		list = append(list, p.ToState())
	}
	return list
}

func (r *Room) broadcastSnapshotLocked() {
	state := GameStateMsg{
		T:         timeNowMillis(),
		Seq:       r.seq,
		Players:   r.playerListLocked(),
		Bullets:   make([]BulletState, 0, len(r.bullets)),
		Obstacles: r.arena,
		TimeLeft:  r.match.Remaining,
	}
	for _, b := range r.bullets {
		state.Bullets = append(state.Bullets, b.ToState())
	}

	data, err := msgpack.Marshal(state)
	if err != nil {
		return
	}
	for _, client := range r.clients {
		client.SendBinary(data)
	}
}

// broadcastJSON sends an envelope to every connection in the room.
// Fire-and-forget: slow consumers drop frames in their send buffers.
func (r *Room) broadcastJSON(msg Envelope) {
	for _, client := range r.clients {
		client.SendJSON(msg)
	}
}

func timeNowMillis() int64 {
	return time.Now().UnixMilli()
}
