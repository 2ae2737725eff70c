package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read at startup when -config is not given
const DefaultConfigFile = "balance.yaml"

// GameConfig holds every balance constant. Keys absent from the YAML
// document keep the values from DefaultConfig.
type GameConfig struct {
	Player   PlayerConfig  `yaml:"player"`
	Enemies  EnemyConfig   `yaml:"enemies"`
	Waves    WaveConfig    `yaml:"waves"`
	Weapons  WeaponConfig  `yaml:"weapons"`
	Loot     LootConfig    `yaml:"loot"`
	Upgrades UpgradeConfig `yaml:"upgrades"`
	Arena    ArenaConfig   `yaml:"arena"`
	UI       UIConfig      `yaml:"ui"`
	Server   ServerConfig  `yaml:"server"`
}

// PlayerConfig holds starting ship stats
type PlayerConfig struct {
	BaseHealth          float64 `yaml:"base_health"`
	BaseShields         float64 `yaml:"base_shields"`
	BaseSpecialEnergy   float64 `yaml:"base_special_energy"`
	BaseSpeed           float64 `yaml:"base_speed"`           // units/s
	BaseFireRate        float64 `yaml:"base_fire_rate"`       // shots/s
	ShieldRegenRate     float64 `yaml:"shield_regen_rate"`    // per second
	ShieldRegenDelay    float64 `yaml:"shield_regen_delay"`   // seconds after taking damage
	EnergyRegenRate     float64 `yaml:"energy_regen_rate"`    // per second
	InvulnerabilityTime float64 `yaml:"invulnerability_time"` // after taking damage
	Radius              float64 `yaml:"radius"`
}

// EnemyConfig holds per-type enemy stats and spawn placement
type EnemyConfig struct {
	Chaser             EnemyStats `yaml:"chaser"`
	Shooter            EnemyStats `yaml:"shooter"`
	Tank               EnemyStats `yaml:"tank"`
	SpawnDistanceMin   float64    `yaml:"spawn_distance_min"`
	SpawnDistanceMax   float64    `yaml:"spawn_distance_max"`
	MaxEnemiesOnScreen int        `yaml:"max_enemies_on_screen"`
}

// WaveConfig holds wave pacing and difficulty scaling
type WaveConfig struct {
	BaseEnemyCount         int          `yaml:"base_enemy_count"`
	EnemyScalingPerWave    float64      `yaml:"enemy_scaling_per_wave"`
	DifficultyScaling      float64      `yaml:"difficulty_scaling_per_wave"`
	BaseSpawnInterval      float64      `yaml:"base_spawn_interval"`
	MinSpawnInterval       float64      `yaml:"min_spawn_interval"`
	SpawnIntervalReduction float64      `yaml:"spawn_interval_reduction"`
	PrepTime               float64      `yaml:"prep_time"`
	SpawnMode              string       `yaml:"spawn_mode"` // "circle" or "scatter"
	Tiers                  []TierConfig `yaml:"tiers"`
}

// TierConfig is one wave bucket of the enemy mix table.
// MaxWave 0 means the bucket has no upper bound.
type TierConfig struct {
	MaxWave int          `yaml:"max_wave"`
	Mix     []TierWeight `yaml:"mix"`
}

// TierWeight is the probability of one enemy type inside a bucket
type TierWeight struct {
	Type   EnemyType `yaml:"type"`
	Chance float64   `yaml:"chance"`
}

// WeaponConfig holds stats for every primary weapon
type WeaponConfig struct {
	Blaster  BlasterConfig  `yaml:"blaster"`
	Laser    LaserConfig    `yaml:"laser"`
	Rocket   RocketConfig   `yaml:"rocket"`
	AoePulse AoePulseConfig `yaml:"aoe_pulse"`
}

// BlasterConfig is the free default projectile weapon
type BlasterConfig struct {
	Damage          float64 `yaml:"damage"`
	FireRate        float64 `yaml:"fire_rate"` // shots per second
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	Range           float64 `yaml:"range"`
	EnergyCost      float64 `yaml:"energy_cost"`
}

// LaserConfig is a hitscan beam that pierces enemies
type LaserConfig struct {
	DamagePerSecond     float64 `yaml:"damage_per_second"`
	MaxRange            float64 `yaml:"max_range"`
	EnergyCostPerSecond float64 `yaml:"energy_cost_per_second"`
	ChargeTime          float64 `yaml:"charge_time"`
	PierceCount         int     `yaml:"pierce_count"`
}

// RocketConfig is a slow projectile with splash damage
type RocketConfig struct {
	Damage          float64 `yaml:"damage"`
	ExplosionRadius float64 `yaml:"explosion_radius"`
	FireRate        float64 `yaml:"fire_rate"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	EnergyCost      float64 `yaml:"energy_cost"`
}

// AoePulseConfig is a radial burst around the ship
type AoePulseConfig struct {
	Damage     float64 `yaml:"damage"`
	Radius     float64 `yaml:"radius"`
	EnergyCost float64 `yaml:"energy_cost"`
	Cooldown   float64 `yaml:"cooldown"`
}

// LootConfig holds drop values and pickup behaviour
type LootConfig struct {
	ExpDropBase       float64       `yaml:"exp_drop_base"`
	ExpDropScaling    float64       `yaml:"exp_drop_scaling"` // xp per point of enemy max health
	HealthPackHeal    float64       `yaml:"health_pack_heal"`
	EnergyCellRestore float64       `yaml:"energy_cell_restore"`
	DropChances       DropChances   `yaml:"drop_chances"`
	Modifiers         LootModifiers `yaml:"modifiers"`
	PickupRange       float64       `yaml:"pickup_range"`
	AttractionRange   float64       `yaml:"attraction_range"`
	AttractionSpeed   float64       `yaml:"attraction_speed"`
	Lifetime          float64       `yaml:"lifetime"`
}

// DropChances are independent Bernoulli probabilities per kill
type DropChances struct {
	HealthPack float64 `yaml:"health_pack"`
	EnergyCell float64 `yaml:"energy_cell"`
}

// UpgradeConfig holds leveling and the two upgrade pools
type UpgradeConfig struct {
	ExpPerLevel       float64   `yaml:"exp_per_level"` // threshold = level * exp_per_level
	MaxUpgradeChoices int       `yaml:"max_upgrade_choices"`
	ShuffleChoices    bool      `yaml:"shuffle_choices"` // seeded shuffle of level-up choices
	LevelUp           []Upgrade `yaml:"level_up"`
	Shop              []Upgrade `yaml:"shop"`
}

// ArenaConfig describes the play field
type ArenaConfig struct {
	Radius            float64 `yaml:"radius"`
	BoundaryDamage    float64 `yaml:"boundary_damage"` // damage per second outside the arena
	BoundaryKnockback float64 `yaml:"boundary_knockback"`
	SpawnRadius       float64 `yaml:"spawn_radius"`
	AsteroidCount     int     `yaml:"asteroid_count"`
	AsteroidRadius    float64 `yaml:"asteroid_radius"`
	StartClearRadius  float64 `yaml:"start_clear_radius"` // no asteroids this close to the start
}

// UIConfig holds behaviour the server drives on behalf of the HUD
type UIConfig struct {
	AutoPauseOnLevelup bool `yaml:"auto_pause_on_levelup"`
}

// ServerConfig holds per-session limits
type ServerConfig struct {
	MaxPlayers int   `yaml:"max_players"`
	AutoStart  bool  `yaml:"auto_start"` // start the run as soon as someone joins
	Seed       int64 `yaml:"seed"`       // 0 = seed from the clock
}

// DefaultConfig returns the documented balance defaults
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Player: PlayerConfig{
			BaseHealth:          100,
			BaseShields:         50,
			BaseSpecialEnergy:   100,
			BaseSpeed:           5,
			BaseFireRate:        5,
			ShieldRegenRate:     10,
			ShieldRegenDelay:    3,
			EnergyRegenRate:     20,
			InvulnerabilityTime: 0.5,
			Radius:              0.6,
		},
		Enemies: EnemyConfig{
			Chaser: EnemyStats{
				Health: 30, Speed: 3, Damage: 15, AttackRange: 1.5, AttackCooldown: 1,
				Radius: 0.5, SpawnWeight: 5, Currency: 5,
			},
			Shooter: EnemyStats{
				Health: 20, Speed: 2, Damage: 10, AttackRange: 8, AttackCooldown: 2,
				ProjectileSpeed: 6, Radius: 0.5, SpawnWeight: 3, Currency: 8,
			},
			Tank: EnemyStats{
				Health: 80, Speed: 1, Damage: 25, AttackRange: 3, AttackCooldown: 3,
				Armor: 0.2, Radius: 0.9, SpawnWeight: 2, Currency: 15,
			},
			SpawnDistanceMin:   12,
			SpawnDistanceMax:   20,
			MaxEnemiesOnScreen: 50,
		},
		Waves: WaveConfig{
			BaseEnemyCount:         10,
			EnemyScalingPerWave:    1.5,
			DifficultyScaling:      0.2,
			BaseSpawnInterval:      2,
			MinSpawnInterval:       0.5,
			SpawnIntervalReduction: 0.1,
			PrepTime:               3,
			SpawnMode:              SpawnModeCircle,
			Tiers:                  DefaultTiers(),
		},
		Weapons: WeaponConfig{
			Blaster:  BlasterConfig{Damage: 20, FireRate: 5, ProjectileSpeed: 15, Range: 20},
			Laser:    LaserConfig{DamagePerSecond: 50, MaxRange: 25, EnergyCostPerSecond: 30, ChargeTime: 0.5, PierceCount: 3},
			Rocket:   RocketConfig{Damage: 60, ExplosionRadius: 3, FireRate: 1.5, ProjectileSpeed: 8, EnergyCost: 25},
			AoePulse: AoePulseConfig{Damage: 80, Radius: 8, EnergyCost: 50, Cooldown: 5},
		},
		Loot: LootConfig{
			ExpDropBase:       10,
			ExpDropScaling:    0.1,
			HealthPackHeal:    25,
			EnergyCellRestore: 30,
			DropChances:       DropChances{HealthPack: 0.2, EnergyCell: 0.1},
			Modifiers:         DefaultLootModifiers(),
			PickupRange:       1,
			AttractionRange:   3,
			AttractionSpeed:   8,
			Lifetime:          30,
		},
		Upgrades: UpgradeConfig{
			ExpPerLevel:       100,
			MaxUpgradeChoices: 3,
			ShuffleChoices:    true,
			LevelUp:           DefaultLevelupPool(),
			Shop:              DefaultShopPool(),
		},
		Arena: ArenaConfig{
			Radius:            25,
			BoundaryDamage:    20,
			BoundaryKnockback: 10,
			SpawnRadius:       30,
			AsteroidCount:     12,
			AsteroidRadius:    1.2,
			StartClearRadius:  5,
		},
		UI: UIConfig{AutoPauseOnLevelup: true},
		Server: ServerConfig{
			MaxPlayers: 4,
			AutoStart:  true,
		},
	}
}

// LoadConfig reads a YAML balance document over the defaults.
// A missing or malformed file logs a warning and yields the defaults.
func LoadConfig(path string) *GameConfig {
	cfg, err := ParseConfigFile(path)
	if err != nil {
		log.Printf("config: %v, using defaults", err)
		return DefaultConfig()
	}
	for _, w := range cfg.Validate() {
		log.Printf("config warning: %s", w)
	}
	return cfg
}

// ParseConfigFile reads and decodes path without falling back
func ParseConfigFile(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML document over DefaultConfig
func ParseConfig(data []byte) (*GameConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the config as YAML
func (c *GameConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate returns human-readable balance warnings. Invalid values that
// would break the simulation are reset to their defaults.
func (c *GameConfig) Validate() []string {
	var warnings []string
	def := DefaultConfig()

	if c.Player.BaseHealth <= 0 {
		warnings = append(warnings, "player base health must be positive")
		c.Player.BaseHealth = def.Player.BaseHealth
	}
	if c.Player.BaseSpeed <= 0 {
		warnings = append(warnings, "player base speed must be positive")
		c.Player.BaseSpeed = def.Player.BaseSpeed
	}
	if c.Player.BaseFireRate <= 0 {
		warnings = append(warnings, "player base fire rate must be positive")
		c.Player.BaseFireRate = def.Player.BaseFireRate
	}
	for _, t := range AllEnemyTypes {
		if s := c.Enemies.statsFor(t); s.Health <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s health must be positive", t))
			*s = *def.Enemies.statsFor(t)
		}
	}
	if c.Enemies.SpawnDistanceMax < c.Enemies.SpawnDistanceMin {
		warnings = append(warnings, "enemy spawn_distance_max is below spawn_distance_min")
		c.Enemies.SpawnDistanceMin, c.Enemies.SpawnDistanceMax = c.Enemies.SpawnDistanceMax, c.Enemies.SpawnDistanceMin
	}
	if c.Waves.BaseEnemyCount < 1 {
		warnings = append(warnings, "waves base_enemy_count must be at least 1")
		c.Waves.BaseEnemyCount = def.Waves.BaseEnemyCount
	}
	if c.Waves.MinSpawnInterval <= 0 {
		warnings = append(warnings, "waves min_spawn_interval must be positive")
		c.Waves.MinSpawnInterval = def.Waves.MinSpawnInterval
	}
	if c.Waves.BaseSpawnInterval < c.Waves.MinSpawnInterval {
		warnings = append(warnings, "waves base_spawn_interval is below min_spawn_interval")
		c.Waves.BaseSpawnInterval = c.Waves.MinSpawnInterval
	}
	if c.Waves.SpawnMode != SpawnModeCircle && c.Waves.SpawnMode != SpawnModeScatter {
		warnings = append(warnings, fmt.Sprintf("unknown spawn_mode %q", c.Waves.SpawnMode))
		c.Waves.SpawnMode = SpawnModeCircle
	}
	if c.Weapons.Blaster.Damage <= 0 {
		warnings = append(warnings, "blaster damage must be positive")
		c.Weapons.Blaster.Damage = def.Weapons.Blaster.Damage
	}
	if c.Upgrades.ExpPerLevel <= 0 {
		warnings = append(warnings, "upgrades exp_per_level must be positive")
		c.Upgrades.ExpPerLevel = def.Upgrades.ExpPerLevel
	}
	if c.Arena.Radius <= 0 {
		warnings = append(warnings, "arena radius must be positive")
		c.Arena.Radius = def.Arena.Radius
	}
	if c.Arena.SpawnRadius <= c.Arena.Radius {
		warnings = append(warnings, "spawn radius should be larger than arena radius")
	}
	if c.Server.MaxPlayers < 1 {
		c.Server.MaxPlayers = def.Server.MaxPlayers
	}
	return warnings
}

// ConfigStore holds the active balance config. Sessions take a snapshot
// when they are created, so a reload only affects new sessions.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	cur  *GameConfig
}

// NewConfigStore loads path (or the defaults) into a new store
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path, cur: LoadConfig(path)}
}

// Get returns the active config
func (s *ConfigStore) Get() *GameConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Reload re-reads the config file. On failure the active config is kept.
func (s *ConfigStore) Reload() error {
	cfg, err := ParseConfigFile(s.path)
	if err != nil {
		return err
	}
	for _, w := range cfg.Validate() {
		log.Printf("config warning: %s", w)
	}
	s.mu.Lock()
	s.cur = cfg
	s.mu.Unlock()
	log.Printf("config: reloaded %s", s.path)
	return nil
}

// parseEnum looks up an enum value by its config name
func parseEnum[T comparable](s string, names map[T]string) (T, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range names {
		if name == s {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// decodeEnum reads a YAML scalar as an enum name
func decodeEnum[T comparable](n *yaml.Node, names map[T]string, what string) (T, error) {
	var s string
	if err := n.Decode(&s); err != nil {
		var zero T
		return zero, err
	}
	v, ok := parseEnum(s, names)
	if !ok {
		return v, fmt.Errorf("line %d: unknown %s %q", n.Line, what, s)
	}
	return v, nil
}
