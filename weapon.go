package main

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// WeaponType identifies the primary weapon
type WeaponType uint8

const (
	WeaponBlaster WeaponType = iota
	WeaponLaser
	WeaponRocket
	WeaponAoePulse
)

var weaponNames = map[WeaponType]string{
	WeaponBlaster:  "blaster",
	WeaponLaser:    "laser",
	WeaponRocket:   "rocket",
	WeaponAoePulse: "aoe_pulse",
}

func (w WeaponType) String() string {
	if name, ok := weaponNames[w]; ok {
		return name
	}
	return fmt.Sprintf("weapon(%d)", uint8(w))
}

// MarshalYAML writes the weapon by name
func (w WeaponType) MarshalYAML() (interface{}, error) {
	return w.String(), nil
}

// UnmarshalYAML reads the weapon by name
func (w *WeaponType) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeEnum(n, weaponNames, "weapon")
	if err != nil {
		return err
	}
	*w = v
	return nil
}

const (
	DoubleShotSpread = 0.08 // radians between the two bolts
	MuzzleOffset     = 0.8  // spawn distance from ship center
)

// Beam is one tick of laser fire. Damage for the tick is DPS * dt.
type Beam struct {
	OwnerID string
	From    Vec3
	To      Vec3
	DPS     float64
	Pierce  int // enemies hit per tick
}

// FireOutput is what a trigger tick produced
type FireOutput struct {
	Projectiles []*Projectile
	Beam        *Beam
	Pulse       bool
}

// Muzzle is where and how a ship fires from
type Muzzle struct {
	OwnerID string
	Pos     Vec3
	Aim     float64 // radians on the floor plane
}

// WeaponState is the firing state of a ship's primary weapon
type WeaponState struct {
	FireCD float64
	Charge float64 // laser charge time accumulated
}

// fireScale is how much faster than base the ship fires after upgrades
func fireScale(s *PlayerStats, baseFireRate float64) float64 {
	if baseFireRate <= 0 {
		return 1
	}
	return math.Max(s.FireRate/baseFireRate, 0.1)
}

// Update advances cooldowns and fires the primary weapon if the trigger
// is held
func (w *WeaponState) Update(dt float64, firing bool, m Muzzle, s *PlayerStats, cfg *GameConfig, cds *Cooldowns) FireOutput {
	var out FireOutput
	if w.FireCD > 0 {
		w.FireCD -= dt
	}
	if !s.IsAlive {
		return out
	}
	if !firing {
		w.Charge = 0
		return out
	}

	wc := cfg.Weapons
	scale := fireScale(s, cfg.Player.BaseFireRate)
	dir := Vec3{X: math.Cos(m.Aim), Z: math.Sin(m.Aim)}
	origin := m.Pos.Add(dir.Scale(MuzzleOffset))

	switch s.PrimaryWeapon {
	case WeaponBlaster:
		if w.FireCD > 0 || !s.SpendEnergy(wc.Blaster.EnergyCost) {
			return out
		}
		w.FireCD = 1 / (wc.Blaster.FireRate * scale)
		dmg := wc.Blaster.Damage * s.DamageMultiplier
		aims := []float64{m.Aim}
		if s.Has(AbilityDoubleShot) {
			aims = []float64{m.Aim - DoubleShotSpread/2, m.Aim + DoubleShotSpread/2}
		}
		for _, a := range aims {
			p := NewBolt(m.OwnerID, origin, a, wc.Blaster, dmg)
			if s.Has(AbilityPiercing) {
				p.Pierce = 1
			}
			if s.Has(AbilityExplosive) {
				p.Splash = ExplosiveShotRadius
				p.SplashDamage = dmg * ExplosiveShotShare
			}
			out.Projectiles = append(out.Projectiles, p)
		}

	case WeaponRocket:
		if w.FireCD > 0 || !s.SpendEnergy(wc.Rocket.EnergyCost) {
			return out
		}
		w.FireCD = 1 / (wc.Rocket.FireRate * scale)
		out.Projectiles = append(out.Projectiles, NewRocket(m.OwnerID, origin, m.Aim, wc.Rocket, wc.Rocket.Damage*s.DamageMultiplier))

	case WeaponLaser:
		w.Charge += dt
		if w.Charge < wc.Laser.ChargeTime {
			return out
		}
		if !s.SpendEnergy(wc.Laser.EnergyCostPerSecond * dt) {
			w.Charge = 0
			return out
		}
		pierce := wc.Laser.PierceCount
		if s.Has(AbilityPiercing) {
			pierce++
		}
		out.Beam = &Beam{
			OwnerID: m.OwnerID,
			From:    origin,
			To:      origin.Add(dir.Scale(wc.Laser.MaxRange)),
			DPS:     wc.Laser.DamagePerSecond * s.DamageMultiplier,
			Pierce:  pierce,
		}

	case WeaponAoePulse:
		out.Pulse = cds.TryPulse(s, wc.AoePulse)
	}
	return out
}
