package main

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UpgradeKind identifies an upgrade slot. Two upgrades of the same kind
// share one level counter regardless of their payload.
type UpgradeKind uint8

const (
	UpgradeHealth UpgradeKind = iota
	UpgradeShields
	UpgradeDamage
	UpgradeFireRate
	UpgradeSpeed
	UpgradeWeapon
	UpgradeSpecial
	UpgradeAbilityAoe
	UpgradeAbilityDrone
)

var upgradeKindNames = map[UpgradeKind]string{
	UpgradeHealth:       "health",
	UpgradeShields:      "shields",
	UpgradeDamage:       "damage",
	UpgradeFireRate:     "fire_rate",
	UpgradeSpeed:        "speed",
	UpgradeWeapon:       "weapon",
	UpgradeSpecial:      "special",
	UpgradeAbilityAoe:   "ability_aoe",
	UpgradeAbilityDrone: "ability_drone",
}

func (k UpgradeKind) String() string {
	if name, ok := upgradeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("upgrade(%d)", uint8(k))
}

// MarshalYAML writes the kind by name
func (k UpgradeKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML reads the kind by name
func (k *UpgradeKind) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeEnum(n, upgradeKindNames, "upgrade kind")
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Upgrade is a level-up choice or shop item
type Upgrade struct {
	Kind        UpgradeKind `yaml:"kind"`
	Amount      float64     `yaml:"amount,omitempty"`
	Weapon      WeaponType  `yaml:"weapon,omitempty"`
	Ability     AbilityKind `yaml:"ability,omitempty"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Cost        int         `yaml:"cost,omitempty"` // base price, shop only
	MaxLevel    int         `yaml:"max_level"`
	Level       int         `yaml:"-"`
	ShopItem    bool        `yaml:"-"`
}

// CanUpgrade reports whether another level may be taken
func (u Upgrade) CanUpgrade() bool {
	return u.Level < u.MaxLevel
}

// Price is Cost * (Level+1) for shop items and 0 for level-up choices
func (u Upgrade) Price() int {
	if !u.ShopItem {
		return 0
	}
	return u.Cost * (u.Level + 1)
}

// AbilityHook handles upgrades that unlock abilities
type AbilityHook func(u Upgrade, stats *PlayerStats)

// UpgradeManager owns the level-up and shop pools of one player and the
// ledger of upgrades applied so far
type UpgradeManager struct {
	levelup []Upgrade
	shop    []Upgrade

	levelupLevels map[UpgradeKind]int
	shopLevels    map[UpgradeKind]int
	applied       map[UpgradeKind]int

	offered []Upgrade
	hook    AbilityHook
	rng     RandSource // nil keeps pool order
}

// NewUpgradeManager copies the two pools. With a non-nil rng, level-up
// choices are shuffled before truncation.
func NewUpgradeManager(levelup, shop []Upgrade, rng RandSource) *UpgradeManager {
	m := &UpgradeManager{
		levelupLevels: make(map[UpgradeKind]int),
		shopLevels:    make(map[UpgradeKind]int),
		applied:       make(map[UpgradeKind]int),
		rng:           rng,
	}
	for _, u := range levelup {
		u.Cost = 0
		u.Level = 0
		u.ShopItem = false
		m.levelup = append(m.levelup, u)
	}
	for _, u := range shop {
		u.Level = 0
		u.ShopItem = true
		m.shop = append(m.shop, u)
	}
	return m
}

// SetAbilityHook registers the handler for ability upgrades
func (m *UpgradeManager) SetAbilityHook(h AbilityHook) {
	m.hook = h
}

func (m *UpgradeManager) pool(shop bool) ([]Upgrade, map[UpgradeKind]int) {
	if shop {
		return m.shop, m.shopLevels
	}
	return m.levelup, m.levelupLevels
}

// available returns pool entries that can still be upgraded, with their
// current level filled in
func (m *UpgradeManager) available(shop bool) []Upgrade {
	entries, levels := m.pool(shop)
	var out []Upgrade
	for _, u := range entries {
		u.Level = levels[u.Kind]
		if u.CanUpgrade() {
			out = append(out, u)
		}
	}
	return out
}

// LevelupChoices returns up to n upgradeable level-up entries and
// remembers them for LevelupChoice
func (m *UpgradeManager) LevelupChoices(n int) []Upgrade {
	choices := m.available(false)
	if m.rng != nil {
		for i := len(choices) - 1; i > 0; i-- {
			j := int(m.rng.Float64() * float64(i+1))
			if j > i {
				j = i
			}
			choices[i], choices[j] = choices[j], choices[i]
		}
	}
	if n >= 0 && len(choices) > n {
		choices = choices[:n]
	}
	m.offered = choices
	return choices
}

// LevelupChoice returns entry i of the last LevelupChoices result
func (m *UpgradeManager) LevelupChoice(i int) (Upgrade, bool) {
	if i < 0 || i >= len(m.offered) {
		return Upgrade{}, false
	}
	return m.offered[i], true
}

// ClearOffer forgets the pending level-up choices
func (m *UpgradeManager) ClearOffer() {
	m.offered = nil
}

// ShopItems returns every upgradeable shop entry in pool order
func (m *UpgradeManager) ShopItems() []Upgrade {
	return m.available(true)
}

// ShopItem returns entry i of ShopItems
func (m *UpgradeManager) ShopItem(i int) (Upgrade, bool) {
	items := m.ShopItems()
	if i < 0 || i >= len(items) {
		return Upgrade{}, false
	}
	return items[i], true
}

// Level returns the current level of a slot in one pool
func (m *UpgradeManager) Level(k UpgradeKind, shop bool) int {
	_, levels := m.pool(shop)
	return levels[k]
}

// Applied returns a copy of the applied-upgrade ledger
func (m *UpgradeManager) Applied() map[UpgradeKind]int {
	out := make(map[UpgradeKind]int, len(m.applied))
	for k, v := range m.applied {
		out[k] = v
	}
	return out
}

// ApplyUpgrade applies u to stats. The slot is matched by kind in the
// pool u came from; a maxed u, a maxed slot or an unknown kind is
// rejected without touching stats.
func (m *UpgradeManager) ApplyUpgrade(u Upgrade, stats *PlayerStats) bool {
	if !u.CanUpgrade() {
		return false
	}
	entries, levels := m.pool(u.ShopItem)
	found := false
	var slot Upgrade
	for _, e := range entries {
		if e.Kind == u.Kind {
			slot = e
			found = true
			break
		}
	}
	if !found {
		return false
	}
	slot.Level = levels[u.Kind]
	if !slot.CanUpgrade() {
		return false
	}

	switch u.Kind {
	case UpgradeHealth:
		stats.MaxHealth += u.Amount
		stats.Health += u.Amount
	case UpgradeShields:
		stats.MaxShields += u.Amount
		stats.Shields += u.Amount
	case UpgradeDamage:
		stats.DamageMultiplier += u.Amount
	case UpgradeFireRate:
		stats.FireRate *= 1 + u.Amount
	case UpgradeSpeed:
		stats.Speed += u.Amount
	case UpgradeWeapon:
		stats.PrimaryWeapon = u.Weapon
	case UpgradeSpecial, UpgradeAbilityAoe, UpgradeAbilityDrone:
		if m.hook != nil {
			m.hook(u, stats)
		}
	}

	levels[u.Kind]++
	m.applied[u.Kind]++
	return true
}

// Purchase buys shop item i if stats can pay its price
func (m *UpgradeManager) Purchase(i int, stats *PlayerStats) (Upgrade, bool) {
	item, ok := m.ShopItem(i)
	if !ok {
		return Upgrade{}, false
	}
	price := item.Price()
	if stats.Currency < price {
		return item, false
	}
	if !m.ApplyUpgrade(item, stats) {
		return item, false
	}
	stats.SpendCurrency(price)
	return item, true
}
