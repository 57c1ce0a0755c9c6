package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"strings"
	"sync/atomic"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round2 rounds to 2 decimal places for snapshot payloads
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeRoomName trims and lowercases a room name. All lookups go
// through this so " Arena " and "arena" address the same room.
func NormalizeRoomName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// randFloat returns a random float64 in [0, 1).
// Simple xorshift, seeded once from crypto/rand — game randomness
// doesn't need to be cryptographic, just cheap. The source is shared
// across room goroutines, so it advances via compare-and-swap.
var randSrc atomic.Uint64

func randFloat() float64 {
	for {
		old := randSrc.Load()
		x := old
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		if x == 0 {
			x = 1
		}
		if randSrc.CompareAndSwap(old, x) {
			return float64(x%10000) / 10000.0
		}
	}
}

func init() {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	var seed uint64
	for i, v := range b {
		seed |= uint64(v) << (uint(i) * 8)
	}
	if seed == 0 {
		seed = 1
	}
	randSrc.Store(seed)
}
