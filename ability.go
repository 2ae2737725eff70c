package main

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// AbilityKind identifies an ability unlocked through upgrades
type AbilityKind uint8

const (
	AbilityDoubleShot  AbilityKind = iota // blaster fires two bolts
	AbilityPiercing                       // projectiles pass through one extra enemy
	AbilityExplosive                      // blaster bolts splash on impact
	AbilityShieldRegen                    // faster shield regeneration
	AbilityDash                           // short forward teleport
	AbilityAoePulse                       // radial burst on the ability key
	AbilityDrone                          // orbiting drone launching homing missiles
)

var abilityNames = map[AbilityKind]string{
	AbilityDoubleShot:  "double_shot",
	AbilityPiercing:    "piercing_shots",
	AbilityExplosive:   "explosive_shots",
	AbilityShieldRegen: "shield_regeneration",
	AbilityDash:        "dash",
	AbilityAoePulse:    "aoe_pulse",
	AbilityDrone:       "drone",
}

func (a AbilityKind) String() string {
	if name, ok := abilityNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ability(%d)", uint8(a))
}

// MarshalYAML writes the ability by name
func (a AbilityKind) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML reads the ability by name
func (a *AbilityKind) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeEnum(n, abilityNames, "ability")
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Ability tuning
const (
	DashCooldown = 3.0
	DashDistance = 4.0

	ShieldRegenBonus = 2.0 // regen rate multiplier

	ExplosiveShotRadius = 1.5
	ExplosiveShotShare  = 0.5 // share of bolt damage dealt as splash

	DroneCooldown    = 2.0
	DroneOrbitRadius = 1.5
	DroneOrbitSpeed  = 2.0 // rad/s

	MissileDamage   = 15.0
	MissileSpeed    = 10.0
	MissileLifetime = 3.0
	MissileTurnRate = 5.0
	MissileRadius   = 0.3
)

// UnlockAbility is the session's AbilityHook. It records the ability
// carried by the upgrade and applies passive effects once.
func UnlockAbility(u Upgrade, s *PlayerStats) {
	a := u.Ability
	switch u.Kind {
	case UpgradeAbilityAoe:
		a = AbilityAoePulse
	case UpgradeAbilityDrone:
		a = AbilityDrone
	}
	if !s.Unlock(a) {
		return
	}
	if a == AbilityShieldRegen {
		s.ShieldRegenRate *= ShieldRegenBonus
	}
}

// Cooldowns tracks per-ship ability timers
type Cooldowns struct {
	Pulse      float64
	Dash       float64
	Drone      float64
	DroneAngle float64
}

// Update ticks every cooldown and spins the drone
func (c *Cooldowns) Update(dt float64) {
	c.Pulse = math.Max(c.Pulse-dt, 0)
	c.Dash = math.Max(c.Dash-dt, 0)
	c.Drone = math.Max(c.Drone-dt, 0)
	c.DroneAngle = NormalizeAngle(c.DroneAngle + DroneOrbitSpeed*dt)
}

// TryPulse starts an AoE pulse if it is off cooldown and energy allows
func (c *Cooldowns) TryPulse(s *PlayerStats, cfg AoePulseConfig) bool {
	if c.Pulse > 0 || !s.SpendEnergy(cfg.EnergyCost) {
		return false
	}
	c.Pulse = cfg.Cooldown
	return true
}

// TryDash reports whether a dash may start now
func (c *Cooldowns) TryDash(s *PlayerStats) bool {
	if !s.Has(AbilityDash) || c.Dash > 0 {
		return false
	}
	c.Dash = DashCooldown
	return true
}

// DroneReady reports whether the drone launches a missile this tick
func (c *Cooldowns) DroneReady(s *PlayerStats) bool {
	if !s.Has(AbilityDrone) || c.Drone > 0 {
		return false
	}
	c.Drone = DroneCooldown
	return true
}

// DronePos returns the drone position around its owner
func (c *Cooldowns) DronePos(owner Vec3) Vec3 {
	return Vec3{
		X: owner.X + math.Cos(c.DroneAngle)*DroneOrbitRadius,
		Y: owner.Y,
		Z: owner.Z + math.Sin(c.DroneAngle)*DroneOrbitRadius,
	}
}

// HomingMissile is a drone missile that tracks the nearest enemy
type HomingMissile struct {
	ID       string
	Pos      Vec3
	Rotation float64
	OwnerID  string
	Alive    bool
	Life     float64
	Damage   float64
}

// NewHomingMissile launches a missile from pos
func NewHomingMissile(pos Vec3, rotation float64, ownerID string, damage float64) *HomingMissile {
	return &HomingMissile{
		ID:       GenerateID(4),
		Pos:      pos,
		Rotation: rotation,
		OwnerID:  ownerID,
		Alive:    true,
		Life:     MissileLifetime,
		Damage:   damage,
	}
}

// Update steers toward the nearest live enemy and moves forward
func (h *HomingMissile) Update(dt float64, enemies map[string]*Enemy) {
	if !h.Alive {
		return
	}
	h.Life -= dt
	if h.Life <= 0 {
		h.Alive = false
		return
	}

	if target := nearestEnemy(h.Pos, enemies, math.MaxFloat64); target != nil {
		desired := math.Atan2(target.Pos.Z-h.Pos.Z, target.Pos.X-h.Pos.X)
		diff := NormalizeAngle(desired - h.Rotation)
		maxTurn := MissileTurnRate * dt
		h.Rotation += Clamp(diff, -maxTurn, maxTurn)
	}

	h.Pos.X += math.Cos(h.Rotation) * MissileSpeed * dt
	h.Pos.Z += math.Sin(h.Rotation) * MissileSpeed * dt
}

// ToState converts to protocol state
func (h *HomingMissile) ToState() ProjectileState {
	return ProjectileState{
		ID:    h.ID,
		Kind:  ShotMissile,
		X:     round2(h.Pos.X),
		Z:     round2(h.Pos.Z),
		R:     round2(h.Rotation),
		Owner: h.OwnerID,
	}
}
