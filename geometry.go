package main

// RectsOverlap reports whether two axis-aligned rectangles overlap.
// The test is strict: rectangles that merely touch along an edge do
// not count as overlapping.
func RectsOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}

// CircleRectOverlap reports whether a point padded by radius r hits a
// rectangle. This is the expanded-rect test, not an exact circle-vs-rect
// test: corners are slightly generous, which is fine for wall padding.
func CircleRectOverlap(cx, cy, r, rx, ry, rw, rh float64) bool {
	return cx > rx-r && cx < rx+rw+r && cy > ry-r && cy < ry+rh+r
}

// CirclesOverlap reports whether two circles overlap, via squared
// distance so no sqrt is needed in the hot path.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	radSum := r1 + r2
	return dx*dx+dy*dy <= radSum*radSum
}
