package main

import "testing"

func TestCheckCollision(t *testing.T) {
	// Overlapping circles
	if !CheckCollision(0, 0, 10, 15, 0, 10) {
		t.Error("circles should collide (overlapping)")
	}

	// Touching circles
	if !CheckCollision(0, 0, 10, 20, 0, 10) {
		t.Error("circles should collide (touching)")
	}

	// Non-overlapping circles
	if CheckCollision(0, 0, 10, 25, 0, 10) {
		t.Error("circles should not collide")
	}

	// Same position
	if !CheckCollision(5, 5, 1, 5, 5, 1) {
		t.Error("same position should collide")
	}
}

func TestCirclesOverlapIgnoresHeight(t *testing.T) {
	if !CirclesOverlap(Vec3{X: 0, Y: 10}, 1, Vec3{X: 1.5, Y: -3}, 1) {
		t.Error("circles on the floor plane should overlap regardless of Y")
	}
}

func TestSegmentCircleIntersect(t *testing.T) {
	if !segmentCircleIntersect(-5, 0, 5, 0, 0, 0.5, 1) {
		t.Error("segment through circle should intersect")
	}
	if segmentCircleIntersect(-5, 3, 5, 3, 0, 0, 1) {
		t.Error("segment above circle should not intersect")
	}
	if !segmentCircleIntersect(-0.2, 0, 0.2, 0, 0, 0, 1) {
		t.Error("segment inside circle should intersect")
	}
	if segmentCircleIntersect(2, 0, 5, 0, 0, 0, 1) {
		t.Error("segment pointing away from circle should not intersect")
	}
}

func TestBeamTargetsOrderAndPierce(t *testing.T) {
	enemies := map[string]*Enemy{
		"far":  {ID: "far", Pos: Vec3{X: 9}, Radius: 0.5, Alive: true},
		"near": {ID: "near", Pos: Vec3{X: 3}, Radius: 0.5, Alive: true},
		"mid":  {ID: "mid", Pos: Vec3{X: 6}, Radius: 0.5, Alive: true},
		"off":  {ID: "off", Pos: Vec3{X: 5, Z: 4}, Radius: 0.5, Alive: true},
		"dead": {ID: "dead", Pos: Vec3{X: 1}, Radius: 0.5, Alive: false},
	}
	beam := &Beam{From: Vec3{}, To: Vec3{X: 20}, Pierce: 2}

	hits := BeamTargets(beam, enemies, nil)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits with pierce 2, got %d", len(hits))
	}
	if hits[0].Enemy.ID != "near" || hits[1].Enemy.ID != "mid" {
		t.Errorf("expected near then mid, got %s then %s", hits[0].Enemy.ID, hits[1].Enemy.ID)
	}
}

func TestBeamTargetsBlockedByAsteroid(t *testing.T) {
	enemies := map[string]*Enemy{
		"behind": {ID: "behind", Pos: Vec3{X: 10}, Radius: 0.5, Alive: true},
	}
	rocks := []*Asteroid{{ID: "a", Pos: Vec3{X: 5}, Radius: 1}}
	beam := &Beam{From: Vec3{}, To: Vec3{X: 20}, Pierce: 3}

	if hits := BeamTargets(beam, enemies, rocks); len(hits) != 0 {
		t.Errorf("expected asteroid to block the beam, got %d hits", len(hits))
	}
}
