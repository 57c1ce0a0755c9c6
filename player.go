package main

import "math"

const (
	PlayerRadius   = 20.0
	PlayerMaxHP    = 100
	PlayerAccel    = 700.0 // units/s²
	PlayerMaxSpeed = 600.0 // units/s
	PlayerTurnRate = 8.0   // radians/s at full turn input
	PlayerDamping  = 0.95  // velocity multiplier per tick
)

// Player is one occupant of a room. Mutated only by the room that owns it.
type Player struct {
	ID      string
	Name    string
	X, Y    float64
	Angle   float64
	VX, VY  float64
	HP      int
	Kills   int
	Ready   bool
	LastSeq int

	// Pending inputs, applied in arrival order on the next tick
	queue []InputMsg
}

// NewPlayer creates a player at a safe spawn with a random heading.
func NewPlayer(id, name string, arena *Arena) *Player {
	x, y := arena.FindSafeSpawn()
	return &Player{
		ID:    id,
		Name:  name,
		X:     x,
		Y:     y,
		Angle: randFloat() * 2 * math.Pi,
		HP:    PlayerMaxHP,
	}
}

// ResetForMatch puts the player in match-start condition: full health,
// zero velocity, fresh spawn, kills and pending inputs cleared.
func (p *Player) ResetForMatch(arena *Arena) {
	p.X, p.Y = arena.FindSafeSpawn()
	p.VX, p.VY = 0, 0
	p.HP = PlayerMaxHP
	p.Kills = 0
	p.Ready = false
	p.queue = p.queue[:0]
}

// Respawn fully heals the player and moves it to a fresh safe spawn.
// Kill count is untouched — dying costs position, not score.
func (p *Player) Respawn(arena *Arena) {
	p.X, p.Y = arena.FindSafeSpawn()
	p.VX, p.VY = 0, 0
	p.HP = PlayerMaxHP
}

// ToState converts to the broadcast representation
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:    p.ID,
		Name:  p.Name,
		X:     round2(p.X),
		Y:     round2(p.Y),
		A:     round2(p.Angle),
		HP:    p.HP,
		Kills: p.Kills,
		Ready: p.Ready,
		Seq:   p.LastSeq,
	}
}
