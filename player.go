package main

import "math"

const (
	PlayerAccel    = 40.0 // units/s², how fast velocity follows input
	PlayerTurnRate = 14.0 // radians/s max turn rate toward the aim
	PlayerBoostMul = 1.6  // dash shares this for its velocity kick
)

// Player is one ship in a session
type Player struct {
	ID        string
	Name      string
	AccountID int64
	Pos       Vec3
	Vel       Vec3
	Rotation  float64
	Stats     *PlayerStats
	Upgrades  *UpgradeManager
	Weapon    WeaponState
	Cooldowns Cooldowns

	// input
	MoveX, MoveZ float64
	Aim          float64
	Firing       bool
	WantPulse    bool
	WantDash     bool

	// run bookkeeping
	Ready           bool
	ShopDone        bool
	PendingLevelups int
	Kills           int
	DamageTaken     float64
	WaveDamage      float64
	FlawlessWaves   int
	Purchases       int
}

// NewPlayer creates a ship at pos with fresh stats and upgrade pools
func NewPlayer(id, name string, pos Vec3, cfg *GameConfig, rng RandSource) *Player {
	var shuffle RandSource
	if cfg.Upgrades.ShuffleChoices {
		shuffle = rng
	}
	um := NewUpgradeManager(cfg.Upgrades.LevelUp, cfg.Upgrades.Shop, shuffle)
	um.SetAbilityHook(UnlockAbility)
	return &Player{
		ID:       id,
		Name:     name,
		Pos:      pos,
		Stats:    NewPlayerStats(cfg.Player, cfg.Upgrades.ExpPerLevel),
		Upgrades: um,
	}
}

// Alive reports whether the ship is still in the run
func (p *Player) Alive() bool {
	return p.Stats.IsAlive
}

// SetInput stores the latest client input. Movement is clamped to a unit vector.
func (p *Player) SetInput(mx, mz, aim float64, firing bool) {
	l := math.Hypot(mx, mz)
	if l > 1 {
		mx /= l
		mz /= l
	}
	p.MoveX, p.MoveZ = mx, mz
	p.Aim = NormalizeAngle(aim)
	p.Firing = firing
}

// Update moves the ship one tick and applies the arena boundary.
// Returns the boundary damage dealt this tick.
func (p *Player) Update(dt float64, arena ArenaConfig, center Vec3) float64 {
	if !p.Alive() {
		p.Vel = Vec3{}
		return 0
	}
	p.Stats.Update(dt)
	p.Cooldowns.Update(dt)

	diff := NormalizeAngle(p.Aim - p.Rotation)
	maxTurn := PlayerTurnRate * dt
	p.Rotation = NormalizeAngle(p.Rotation + Clamp(diff, -maxTurn, maxTurn))

	desired := Vec3{X: p.MoveX, Z: p.MoveZ}.Scale(p.Stats.Speed)
	blend := math.Min(PlayerAccel*dt/math.Max(p.Stats.Speed, 1), 1)
	p.Vel = p.Vel.Add(desired.Sub(p.Vel).Scale(blend))

	if p.WantDash {
		p.WantDash = false
		if p.Cooldowns.TryDash(p.Stats) {
			dir := Vec3{X: math.Cos(p.Rotation), Z: math.Sin(p.Rotation)}
			p.Pos = p.Pos.Add(dir.Scale(DashDistance))
			p.Vel = dir.Scale(p.Stats.Speed * PlayerBoostMul)
		}
	}

	p.Pos = p.Pos.Add(p.Vel.Scale(dt))

	out := p.Pos.Sub(center)
	out.Y = 0
	if out.Len() <= arena.Radius {
		return 0
	}
	// outside the arena: hurt and push back toward the center
	p.Vel = out.Normalize().Scale(-arena.BoundaryKnockback)
	dmg := arena.BoundaryDamage * dt
	p.Hurt(dmg)
	return dmg
}

// Hurt applies damage to the ship and tracks it for the run summary.
// Returns true if the ship died.
func (p *Player) Hurt(dmg float64) bool {
	if !p.Alive() || dmg <= 0 {
		return false
	}
	p.DamageTaken += dmg
	p.WaveDamage += dmg
	return p.Stats.TakeDamage(dmg)
}

// Muzzle returns the firing origin and aim
func (p *Player) Muzzle() Muzzle {
	return Muzzle{OwnerID: p.ID, Pos: p.Pos, Aim: p.Rotation}
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	s := p.Stats
	return PlayerState{
		ID:       p.ID,
		Name:     p.Name,
		X:        round2(p.Pos.X),
		Z:        round2(p.Pos.Z),
		R:        round2(p.Rotation),
		HP:       round1(s.Health),
		MaxHP:    round1(s.MaxHealth),
		Shield:   round1(s.Shields),
		MaxSh:    round1(s.MaxShields),
		Energy:   round1(s.SpecialEnergy),
		MaxEn:    round1(s.MaxEnergy),
		Level:    s.Level,
		XP:       round1(s.Experience),
		XPNext:   round1(s.ExpToNextLevel()),
		Credits:  s.Currency,
		Weapon:   uint8(s.PrimaryWeapon),
		Alive:    s.IsAlive,
		Invuln:   s.Invulnerable(),
		Kills:    p.Kills,
		Pulse:    round1(p.Cooldowns.Pulse),
		HasDrone: s.Has(AbilityDrone),
	}
}
