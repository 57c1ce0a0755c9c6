package main

import "testing"

func TestGenerateArenaWallsDisjoint(t *testing.T) {
	for i := 0; i < 25; i++ {
		a := GenerateArena()
		for j := 0; j < len(a.Walls); j++ {
			for k := j + 1; k < len(a.Walls); k++ {
				w1, w2 := a.Walls[j], a.Walls[k]
				if RectsOverlap(w1.X, w1.Y, w1.W, w1.H, w2.X, w2.Y, w2.W, w2.H) {
					t.Fatalf("arena %d: walls %d and %d overlap: %+v %+v", i, j, k, w1, w2)
				}
			}
		}
	}
}

func TestGenerateArenaCounts(t *testing.T) {
	a := GenerateArena()

	if a.Width != ArenaWidth || a.Height != ArenaHeight {
		t.Errorf("expected %vx%v arena, got %vx%v", ArenaWidth, ArenaHeight, a.Width, a.Height)
	}
	if len(a.Walls) > wallTarget {
		t.Errorf("expected at most %d walls, got %d", wallTarget, len(a.Walls))
	}
	if len(a.Pillars) != pillarCount {
		t.Errorf("expected %d pillars, got %d", pillarCount, len(a.Pillars))
	}

	for _, w := range a.Walls {
		if w.X < wallMargin || w.Y < wallMargin ||
			w.X+w.W > a.Width-wallMargin || w.Y+w.H > a.Height-wallMargin {
			t.Errorf("wall out of margin bounds: %+v", w)
		}
		horizontal := w.W >= 150 && w.W <= 300 && w.H >= 50 && w.H <= 90
		vertical := w.W >= 50 && w.W <= 90 && w.H >= 100 && w.H <= 200
		if !horizontal && !vertical {
			t.Errorf("wall dimensions outside both orientation ranges: %+v", w)
		}
	}

	for _, p := range a.Pillars {
		if p.R < pillarMinRadius || p.R > pillarMaxRadius {
			t.Errorf("pillar radius out of range: %v", p.R)
		}
		if p.X < 0 || p.X > a.Width || p.Y < 0 || p.Y > a.Height {
			t.Errorf("pillar center out of bounds: %+v", p)
		}
	}
}

func TestArenaCollides(t *testing.T) {
	a := &Arena{
		Width:   ArenaWidth,
		Height:  ArenaHeight,
		Walls:   []Wall{{X: 100, Y: 100, W: 50, H: 50}},
		Pillars: []Pillar{{X: 500, Y: 300, R: 40}},
	}

	// Inside the wall
	if !a.Collides(120, 120, 1) {
		t.Error("point inside wall should collide")
	}
	// Near the wall, within padding
	if !a.Collides(95, 120, 10) {
		t.Error("padded point near wall should collide")
	}
	// Near the wall, outside padding
	if a.Collides(95, 120, 2) {
		t.Error("point clear of padded wall should not collide")
	}
	// Inside the pillar's padded radius
	if !a.Collides(540, 300, 10) {
		t.Error("point within pillar radius should collide")
	}
	// Clear of everything
	if a.Collides(900, 500, 20) {
		t.Error("open space should not collide")
	}
}

func TestFindSafeSpawn(t *testing.T) {
	a := GenerateArena()
	for i := 0; i < 50; i++ {
		x, y := a.FindSafeSpawn()
		if x < 0 || x > a.Width || y < 0 || y > a.Height {
			t.Fatalf("spawn out of bounds: (%v, %v)", x, y)
		}
	}

	// Empty arena: every spawn is safe
	empty := &Arena{Width: ArenaWidth, Height: ArenaHeight}
	x, y := empty.FindSafeSpawn()
	if empty.Collides(x, y, PlayerRadius) {
		t.Errorf("spawn in empty arena should not collide: (%v, %v)", x, y)
	}
}
