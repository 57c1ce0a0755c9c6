package main

const (
	ArenaWidth  = 1250.0
	ArenaHeight = 650.0

	wallTarget      = 8
	wallMaxAttempts = 100
	wallMargin      = 20.0

	pillarCount     = 6
	pillarMinRadius = 40.0
	pillarMaxRadius = 70.0

	spawnMaxAttempts = 1000
)

// Wall is an axis-aligned rectangular obstacle
type Wall struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pillar is a circular obstacle
type Pillar struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Arena is the static obstacle layout of a room. Generated once at room
// creation and immutable afterwards.
type Arena struct {
	Width   float64  `json:"w"`
	Height  float64  `json:"h"`
	Walls   []Wall   `json:"walls"`
	Pillars []Pillar `json:"pillars"`
}

// GenerateArena builds a fresh layout. Walls are placed by rejection
// sampling: a candidate overlapping an already accepted wall is thrown
// away, and we stop after wallMaxAttempts regardless — callers must
// tolerate fewer than wallTarget walls. Pillars are placed without any
// overlap check.
func GenerateArena() *Arena {
	a := &Arena{Width: ArenaWidth, Height: ArenaHeight}

	for attempts := 0; attempts < wallMaxAttempts && len(a.Walls) < wallTarget; attempts++ {
		var w, h float64
		if randFloat() < 0.5 {
			// Horizontal: wide and short
			w = 150 + randFloat()*150
			h = 50 + randFloat()*40
		} else {
			// Vertical: narrow and tall
			w = 50 + randFloat()*40
			h = 100 + randFloat()*100
		}
		x := wallMargin + randFloat()*(a.Width-2*wallMargin-w)
		y := wallMargin + randFloat()*(a.Height-2*wallMargin-h)

		overlaps := false
		for _, o := range a.Walls {
			if RectsOverlap(x, y, w, h, o.X, o.Y, o.W, o.H) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			a.Walls = append(a.Walls, Wall{X: x, Y: y, W: w, H: h})
		}
	}

	for i := 0; i < pillarCount; i++ {
		a.Pillars = append(a.Pillars, Pillar{
			X: randFloat() * a.Width,
			Y: randFloat() * a.Height,
			R: pillarMinRadius + randFloat()*(pillarMaxRadius-pillarMinRadius),
		})
	}

	return a
}

// Collides reports whether a point padded by radius hits any wall or pillar.
func (a *Arena) Collides(x, y, radius float64) bool {
	for _, w := range a.Walls {
		if CircleRectOverlap(x, y, radius, w.X, w.Y, w.W, w.H) {
			return true
		}
	}
	for _, p := range a.Pillars {
		dx := x - p.X
		dy := y - p.Y
		radSum := radius + p.R
		if dx*dx+dy*dy < radSum*radSum {
			return true
		}
	}
	return false
}

// FindSafeSpawn samples random in-bounds points until one clears the
// obstacles at player radius. After spawnMaxAttempts the last sample is
// returned even if it collides — a dense layout degrades to a possibly
// overlapping spawn rather than an error.
func (a *Arena) FindSafeSpawn() (float64, float64) {
	var x, y float64
	for i := 0; i < spawnMaxAttempts; i++ {
		x = randFloat() * a.Width
		y = randFloat() * a.Height
		if !a.Collides(x, y, PlayerRadius) {
			return x, y
		}
	}
	return x, y
}
