package main

import (
	"math"
	"sort"
)

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// CirclesOverlap checks two circles on the arena floor
func CirclesOverlap(a Vec3, ra float64, b Vec3, rb float64) bool {
	return CheckCollision(a.X, a.Z, ra, b.X, b.Z, rb)
}

// segmentCircleIntersect checks if a line segment (x1,y1)-(x2,y2) intersects a circle at (cx,cy) with radius r.
func segmentCircleIntersect(x1, y1, x2, y2, cx, cy, r float64) bool {
	_, ok := segmentCircleEntry(x1, y1, x2, y2, cx, cy, r)
	return ok
}

// segmentCircleEntry returns the segment parameter in [0,1] where the
// segment first touches the circle. A segment starting inside the circle
// enters at 0.
func segmentCircleEntry(x1, y1, x2, y2, cx, cy, r float64) (float64, bool) {
	dx := x2 - x1
	dy := y2 - y1
	fx := x1 - cx
	fy := y1 - cy
	a := dx*dx + dy*dy
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - r*r
	if a == 0 {
		return 0, c <= 0
	}
	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}
	discriminant = math.Sqrt(discriminant)
	t1 := (-b - discriminant) / (2 * a)
	t2 := (-b + discriminant) / (2 * a)
	switch {
	case t1 >= 0 && t1 <= 1:
		return t1, true
	case t1 < 0 && t2 >= 0:
		return 0, true
	}
	return 0, false
}

// BeamHit is an enemy struck by a beam, t along the beam in [0,1]
type BeamHit struct {
	Enemy *Enemy
	T     float64
}

// BeamTargets returns live enemies crossing the beam sorted by distance
// from its origin, cut short at the first asteroid
func BeamTargets(b *Beam, enemies map[string]*Enemy, asteroids []*Asteroid) []BeamHit {
	stop := 1.0
	for _, a := range asteroids {
		if t, ok := segmentCircleEntry(b.From.X, b.From.Z, b.To.X, b.To.Z, a.Pos.X, a.Pos.Z, a.Radius); ok && t < stop {
			stop = t
		}
	}
	var hits []BeamHit
	for _, e := range enemies {
		if !e.Alive {
			continue
		}
		t, ok := segmentCircleEntry(b.From.X, b.From.Z, b.To.X, b.To.Z, e.Pos.X, e.Pos.Z, e.Radius)
		if ok && t <= stop {
			hits = append(hits, BeamHit{Enemy: e, T: t})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].T != hits[j].T {
			return hits[i].T < hits[j].T
		}
		return hits[i].Enemy.ID < hits[j].Enemy.ID
	})
	if b.Pierce > 0 && len(hits) > b.Pierce {
		hits = hits[:b.Pierce]
	}
	return hits
}
