package main

import "math"

// HitPlayer applies an enemy hit unless the ship is in its grace window,
// then opens the window. Returns true if the ship died.
func HitPlayer(p *Player, dmg float64) bool {
	if p.Stats.Invulnerable() || dmg <= 0 {
		return false
	}
	died := p.Hurt(dmg)
	p.Stats.StartGrace()
	return died
}

// Explode damages every live enemy within radius of center and returns
// the ones it killed
func Explode(center Vec3, radius, dmg float64, enemies map[string]*Enemy) []*Enemy {
	var killed []*Enemy
	for _, e := range enemies {
		if !e.Alive {
			continue
		}
		reach := radius + e.Radius
		if FlatDistanceSq(center, e.Pos) > reach*reach {
			continue
		}
		if e.TakeDamage(dmg) {
			killed = append(killed, e)
		}
	}
	return killed
}

// nearestEnemy returns the closest live enemy within maxDist, or nil
func nearestEnemy(pos Vec3, enemies map[string]*Enemy, maxDist float64) *Enemy {
	var best *Enemy
	bestD := maxDist * maxDist
	if math.IsInf(maxDist, 1) || maxDist == math.MaxFloat64 {
		bestD = math.MaxFloat64
	}
	for _, e := range enemies {
		if !e.Alive {
			continue
		}
		if d := FlatDistanceSq(pos, e.Pos); d < bestD {
			bestD = d
			best = e
		}
	}
	return best
}

// nearestPlayer returns the closest live player, or nil
func nearestPlayer(pos Vec3, players map[string]*Player) *Player {
	var best *Player
	bestD := math.MaxFloat64
	for _, p := range players {
		if !p.Alive() {
			continue
		}
		if d := FlatDistanceSq(pos, p.Pos); d < bestD {
			bestD = d
			best = p
		}
	}
	return best
}
