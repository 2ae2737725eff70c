package main

import "math"

// LootKind tags a LootDrop
type LootKind uint8

const (
	LootExperience LootKind = iota
	LootHealth
	LootEnergy
	LootCurrency
)

var lootKindNames = [...]string{"experience", "health", "energy", "currency"}

func (k LootKind) String() string {
	if int(k) < len(lootKindNames) {
		return lootKindNames[k]
	}
	return "unknown"
}

// LootDrop is one reward from a kill. Amount is used by Experience,
// Health and Energy; Credits by Currency.
type LootDrop struct {
	Kind    LootKind
	Amount  float64
	Credits int
}

// LootTable maps a kill to its drops
type LootTable struct {
	ExpBase      float64
	ExpScaling   float64
	HealthAmount float64
	HealthChance float64
	EnergyAmount float64
	EnergyChance float64
	Currency     map[EnemyType]int
}

// NewLootTable builds a table from the loot and enemies config sections
func NewLootTable(loot LootConfig, enemies EnemyConfig) LootTable {
	t := LootTable{
		ExpBase:      loot.ExpDropBase,
		ExpScaling:   loot.ExpDropScaling,
		HealthAmount: loot.HealthPackHeal,
		HealthChance: loot.DropChances.HealthPack,
		EnergyAmount: loot.EnergyCellRestore,
		EnergyChance: loot.DropChances.EnergyCell,
		Currency:     make(map[EnemyType]int, len(AllEnemyTypes)),
	}
	for _, et := range AllEnemyTypes {
		t.Currency[et] = enemies.statsFor(et).Currency
	}
	return t
}

// RollDrops returns the drops for one kill: experience always, then
// health and energy on independent rolls, then one currency drop. It
// draws exactly two values from rng, health first.
func (t LootTable) RollDrops(e EnemySnapshot, rng RandSource) []LootDrop {
	drops := []LootDrop{{Kind: LootExperience, Amount: t.ExpBase + e.MaxHealth*t.ExpScaling}}

	healthRoll := rng.Float64()
	energyRoll := rng.Float64()
	if healthRoll < t.HealthChance {
		drops = append(drops, LootDrop{Kind: LootHealth, Amount: t.HealthAmount})
	}
	if energyRoll < t.EnergyChance {
		drops = append(drops, LootDrop{Kind: LootEnergy, Amount: t.EnergyAmount})
	}
	return append(drops, LootDrop{Kind: LootCurrency, Credits: t.Currency[e.Type]})
}

// LootModifiers scale drops when they become world pickups
type LootModifiers struct {
	Experience      float64 `yaml:"experience"`
	Health          float64 `yaml:"health"`
	Energy          float64 `yaml:"energy"`
	Currency        float64 `yaml:"currency"`
	AttractionBonus float64 `yaml:"attraction_bonus"` // added to the pickup attraction range
}

// DefaultLootModifiers leaves drops unchanged
func DefaultLootModifiers() LootModifiers {
	return LootModifiers{Experience: 1, Health: 1, Energy: 1, Currency: 1}
}

// Apply returns d scaled by the matching multiplier
func (m LootModifiers) Apply(d LootDrop) LootDrop {
	switch d.Kind {
	case LootExperience:
		d.Amount *= m.Experience
	case LootHealth:
		d.Amount *= m.Health
	case LootEnergy:
		d.Amount *= m.Energy
	case LootCurrency:
		d.Credits = int(math.Round(float64(d.Credits) * m.Currency))
	}
	return d
}
