package main

import (
	"fmt"
	"math"
	"time"
)

const (
	BulletSpeed    = 400.0 // units/s
	BulletLifetime = 2.5   // seconds
	BulletRadius   = 2.0
	BulletDamage   = 20
	BulletOffset   = 20.0 // spawn distance ahead of the shooter
)

// Bullet is a live projectile owned by a player.
type Bullet struct {
	ID      string
	OwnerID string
	X, Y    float64
	VX, VY  float64
	Life    float64
}

// NewBullet spawns a bullet ahead of the shooter along its heading.
// The id combines owner, spawn time and a random suffix so it is unique
// within the room even for same-tick shots.
func NewBullet(owner *Player) *Bullet {
	return &Bullet{
		ID:      fmt.Sprintf("%s-%d-%s", owner.ID, time.Now().UnixMilli(), GenerateID(2)),
		OwnerID: owner.ID,
		X:       owner.X + math.Cos(owner.Angle)*BulletOffset,
		Y:       owner.Y + math.Sin(owner.Angle)*BulletOffset,
		VX:      math.Cos(owner.Angle) * BulletSpeed,
		VY:      math.Sin(owner.Angle) * BulletSpeed,
		Life:    BulletLifetime,
	}
}

// ToState converts to the broadcast representation
func (b *Bullet) ToState() BulletState {
	return BulletState{
		ID:    b.ID,
		X:     round2(b.X),
		Y:     round2(b.Y),
		VX:    round2(b.VX),
		VY:    round2(b.VY),
		Owner: b.OwnerID,
	}
}
