package main

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// EnemyType identifies one enemy archetype
type EnemyType uint8

const (
	EnemyChaser EnemyType = iota
	EnemyShooter
	EnemyTank
)

// AllEnemyTypes lists every archetype in catalog order
var AllEnemyTypes = []EnemyType{EnemyChaser, EnemyShooter, EnemyTank}

var enemyTypeNames = map[EnemyType]string{
	EnemyChaser:  "chaser",
	EnemyShooter: "shooter",
	EnemyTank:    "tank",
}

func (t EnemyType) String() string {
	if name, ok := enemyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("enemy(%d)", uint8(t))
}

// ParseEnemyType looks up an archetype by its config name
func ParseEnemyType(s string) (EnemyType, bool) {
	return parseEnum(s, enemyTypeNames)
}

// MarshalYAML writes the type by name
func (t EnemyType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML reads the type by name
func (t *EnemyType) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeEnum(n, enemyTypeNames, "enemy type")
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EnemyStats is the per-type stat block
type EnemyStats struct {
	Health          float64 `yaml:"health"`
	Speed           float64 `yaml:"speed"`
	Damage          float64 `yaml:"damage"`
	AttackRange     float64 `yaml:"attack_range"`
	AttackCooldown  float64 `yaml:"attack_cooldown"`  // seconds
	Armor           float64 `yaml:"armor"`            // fraction of damage absorbed
	ProjectileSpeed float64 `yaml:"projectile_speed"` // 0 = melee
	Radius          float64 `yaml:"radius"`
	SpawnWeight     float64 `yaml:"spawn_weight"`
	Currency        int     `yaml:"currency"` // credits dropped on death
}

// Ranged reports whether the type attacks with projectiles
func (s EnemyStats) Ranged() bool {
	return s.ProjectileSpeed > 0
}

func (c *EnemyConfig) statsFor(t EnemyType) *EnemyStats {
	switch t {
	case EnemyChaser:
		return &c.Chaser
	case EnemyShooter:
		return &c.Shooter
	case EnemyTank:
		return &c.Tank
	}
	return nil
}

// EnemyCatalog is the static stat table for every enemy type
type EnemyCatalog struct {
	stats map[EnemyType]EnemyStats
	order []EnemyType
}

// NewEnemyCatalog builds a catalog from the enemies config section
func NewEnemyCatalog(cfg EnemyConfig) *EnemyCatalog {
	c := &EnemyCatalog{stats: make(map[EnemyType]EnemyStats, len(AllEnemyTypes))}
	for _, t := range AllEnemyTypes {
		c.stats[t] = *cfg.statsFor(t)
		c.order = append(c.order, t)
	}
	return c
}

// Stats returns the stat block for t
func (c *EnemyCatalog) Stats(t EnemyType) (EnemyStats, bool) {
	s, ok := c.stats[t]
	return s, ok
}

// Pick selects a type weighted by spawn_weight. roll is uniform in [0,1).
func (c *EnemyCatalog) Pick(roll float64) EnemyType {
	total := 0.0
	for _, t := range c.order {
		total += c.stats[t].SpawnWeight
	}
	if total <= 0 {
		return EnemyChaser
	}
	target := roll * total
	acc := 0.0
	for _, t := range c.order {
		acc += c.stats[t].SpawnWeight
		if target < acc {
			return t
		}
	}
	return c.order[len(c.order)-1]
}

// EnemySnapshot is the read-only view of a dead enemy used to roll loot
type EnemySnapshot struct {
	Type      EnemyType
	MaxHealth float64
	Position  Vec3
}

// AIState is the enemy behaviour state
type AIState uint8

const (
	AISeeking AIState = iota
	AIAttacking
	AIRetreating
)

const (
	EnemyTurnSpeed       = 6.0 // rad/s
	EnemyRetreatFraction = 0.5 // shooters back off inside this share of attack range
	EnemySeparation      = 1.2 // spacing kept between enemies
)

// Enemy is a live enemy in the arena
type Enemy struct {
	ID         string
	Type       EnemyType
	Pos        Vec3
	Vel        Vec3
	Rotation   float64
	HP         float64
	MaxHP      float64
	Damage     float64
	Speed      float64
	Armor      float64
	Radius     float64
	Range      float64
	Cooldown   float64
	ProjSpeed  float64
	AttackCD   float64
	State      AIState
	Alive      bool
	Multiplier float64
}

// EnemyAction is what an enemy wants to do after its AI step
type EnemyAction struct {
	Melee bool // deal Damage to the target this tick
	Fire  bool // launch a projectile toward the target
	Dir   Vec3 // unit aim direction on the floor
}

// NewEnemy creates an enemy from a spawn request. Health and damage are
// scaled by the difficulty multiplier captured at spawn time.
func NewEnemy(spawn EnemySpawnData, stats EnemyStats) *Enemy {
	mult := spawn.DifficultyMultiplier
	if mult < 1 {
		mult = 1
	}
	hp := stats.Health * mult
	return &Enemy{
		ID:         GenerateID(4),
		Type:       spawn.Type,
		Pos:        spawn.Position,
		HP:         hp,
		MaxHP:      hp,
		Damage:     stats.Damage * mult,
		Speed:      stats.Speed,
		Armor:      Clamp(stats.Armor, 0, 0.95),
		Radius:     stats.Radius,
		Range:      stats.AttackRange,
		Cooldown:   stats.AttackCooldown,
		ProjSpeed:  stats.ProjectileSpeed,
		Alive:      true,
		Multiplier: mult,
	}
}

// Update steers toward the target and returns the attack it wants to make.
// hasTarget false means no player is alive, so the enemy idles.
func (e *Enemy) Update(dt float64, target Vec3, hasTarget bool) EnemyAction {
	var act EnemyAction
	if !e.Alive {
		return act
	}
	if e.AttackCD > 0 {
		e.AttackCD -= dt
	}
	if !hasTarget {
		e.Vel = Vec3{}
		return act
	}

	to := target.Sub(e.Pos)
	to.Y = 0
	dist := to.Len()
	dir := to.Normalize()
	act.Dir = dir

	desired := math.Atan2(dir.Z, dir.X)
	diff := NormalizeAngle(desired - e.Rotation)
	maxTurn := EnemyTurnSpeed * dt
	e.Rotation += Clamp(diff, -maxTurn, maxTurn)

	ranged := e.ProjSpeed > 0
	switch {
	case ranged && dist < e.Range*EnemyRetreatFraction:
		e.State = AIRetreating
		e.Vel = dir.Scale(-e.Speed)
	case dist <= e.Range:
		e.State = AIAttacking
		if ranged {
			e.Vel = Vec3{}
		} else {
			e.Vel = dir.Scale(e.Speed)
		}
	default:
		e.State = AISeeking
		e.Vel = dir.Scale(e.Speed)
	}

	if e.State == AIAttacking && e.AttackCD <= 0 {
		e.AttackCD = e.Cooldown
		if ranged {
			act.Fire = true
		} else {
			act.Melee = true
		}
	}

	e.Pos = e.Pos.Add(e.Vel.Scale(dt))
	return act
}

// Separate pushes e away from o when they overlap
func (e *Enemy) Separate(o *Enemy) {
	minDist := (e.Radius + o.Radius) * EnemySeparation
	d := e.Pos.Sub(o.Pos)
	d.Y = 0
	l := d.Len()
	if l >= minDist || l == 0 {
		return
	}
	push := d.Scale((minDist - l) / l * 0.5)
	e.Pos = e.Pos.Add(push)
	o.Pos = o.Pos.Sub(push)
}

// TakeDamage applies armor and returns true if this hit killed the enemy
func (e *Enemy) TakeDamage(dmg float64) bool {
	if !e.Alive || dmg <= 0 {
		return false
	}
	e.HP -= dmg * (1 - e.Armor)
	if e.HP <= 0 {
		e.HP = 0
		e.Alive = false
		return true
	}
	return false
}

// Snapshot returns the view used for loot rolls
func (e *Enemy) Snapshot() EnemySnapshot {
	return EnemySnapshot{Type: e.Type, MaxHealth: e.MaxHP, Position: e.Pos}
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:    e.ID,
		Type:  uint8(e.Type),
		X:     round2(e.Pos.X),
		Z:     round2(e.Pos.Z),
		R:     round2(e.Rotation),
		HP:    round1(e.HP),
		MaxHP: round1(e.MaxHP),
		AI:    uint8(e.State),
	}
}
