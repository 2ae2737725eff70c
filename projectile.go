package main

import "math"

const (
	ProjectileLifetime = 2.0 // seconds
	ProjectileRadius   = 0.2
	RocketRadius       = 0.35
	EnemyShotLifetime  = 3.0
)

// ShotKind tags a projectile for the client and for hit resolution
type ShotKind uint8

const (
	ShotBolt ShotKind = iota
	ShotRocket
	ShotEnemy
	ShotMissile
)

// Projectile is a moving shot. Player shots hit enemies,
// ShotEnemy shots hit players.
type Projectile struct {
	ID           string
	OwnerID      string
	Kind         ShotKind
	Pos          Vec3
	Vel          Vec3
	Rotation     float64
	Life         float64
	Damage       float64
	Radius       float64
	Pierce       int     // extra enemies it may pass through
	Splash       float64 // explosion radius, 0 = none
	SplashDamage float64
	Alive        bool

	hit map[string]bool // enemies already struck by a piercing shot
}

func newShot(kind ShotKind, ownerID string, from Vec3, aim, speed, life, dmg, radius float64) *Projectile {
	return &Projectile{
		ID:       GenerateID(3),
		OwnerID:  ownerID,
		Kind:     kind,
		Pos:      from,
		Vel:      Vec3{X: math.Cos(aim) * speed, Z: math.Sin(aim) * speed},
		Rotation: aim,
		Life:     life,
		Damage:   dmg,
		Radius:   radius,
		Alive:    true,
	}
}

// NewBolt creates a blaster bolt. Its lifetime is bounded by the blaster range.
func NewBolt(ownerID string, from Vec3, aim float64, cfg BlasterConfig, dmg float64) *Projectile {
	life := ProjectileLifetime
	if cfg.ProjectileSpeed > 0 && cfg.Range > 0 {
		life = cfg.Range / cfg.ProjectileSpeed
	}
	return newShot(ShotBolt, ownerID, from, aim, cfg.ProjectileSpeed, life, dmg, ProjectileRadius)
}

// NewRocket creates a rocket that explodes on impact
func NewRocket(ownerID string, from Vec3, aim float64, cfg RocketConfig, dmg float64) *Projectile {
	p := newShot(ShotRocket, ownerID, from, aim, cfg.ProjectileSpeed, ProjectileLifetime*2, dmg, RocketRadius)
	p.Splash = cfg.ExplosionRadius
	p.SplashDamage = dmg
	return p
}

// NewEnemyShot creates a projectile fired by a ranged enemy
func NewEnemyShot(e *Enemy, dir Vec3) *Projectile {
	aim := math.Atan2(dir.Z, dir.X)
	from := e.Pos.Add(dir.Scale(e.Radius))
	return newShot(ShotEnemy, e.ID, from, aim, e.ProjSpeed, EnemyShotLifetime, e.Damage, ProjectileRadius)
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	p.Life -= dt
	if p.Life <= 0 {
		p.Alive = false
	}
}

// Strike records a hit on enemy id and reports whether it counts.
// A piercing shot stays alive until its pierce budget runs out.
func (p *Projectile) Strike(id string) bool {
	if !p.Alive {
		return false
	}
	if p.hit[id] {
		return false
	}
	if p.Pierce > 0 {
		if p.hit == nil {
			p.hit = make(map[string]bool)
		}
		p.hit[id] = true
		p.Pierce--
		return true
	}
	p.Alive = false
	return true
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		Kind:  p.Kind,
		X:     round2(p.Pos.X),
		Z:     round2(p.Pos.Z),
		R:     round2(p.Rotation),
		Owner: p.OwnerID,
	}
}
