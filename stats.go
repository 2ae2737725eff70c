package main

// DefaultExpPerLevel is the level threshold step when none is configured
const DefaultExpPerLevel = 100

// PlayerStats is the stat aggregate of one ship. It changes only through
// its methods and UpgradeManager.ApplyUpgrade.
type PlayerStats struct {
	Health           float64
	MaxHealth        float64
	Shields          float64
	MaxShields       float64
	SpecialEnergy    float64
	MaxEnergy        float64
	Experience       float64
	Level            int
	Speed            float64
	FireRate         float64 // shots per second
	DamageMultiplier float64
	IsAlive          bool

	Currency      int
	PrimaryWeapon WeaponType
	Abilities     map[AbilityKind]bool

	ShieldRegenRate  float64
	ShieldRegenDelay float64
	EnergyRegenRate  float64
	InvulnTime       float64
	ExpPerLevel      float64

	regenDelay float64 // seconds until shields start regenerating
	invuln     float64 // seconds of invulnerability left
}

// NewPlayerStats creates level 1 stats from the player config section
func NewPlayerStats(cfg PlayerConfig, expPerLevel float64) *PlayerStats {
	if expPerLevel <= 0 {
		expPerLevel = DefaultExpPerLevel
	}
	return &PlayerStats{
		Health:           cfg.BaseHealth,
		MaxHealth:        cfg.BaseHealth,
		Shields:          cfg.BaseShields,
		MaxShields:       cfg.BaseShields,
		SpecialEnergy:    cfg.BaseSpecialEnergy,
		MaxEnergy:        cfg.BaseSpecialEnergy,
		Level:            1,
		Speed:            cfg.BaseSpeed,
		FireRate:         cfg.BaseFireRate,
		DamageMultiplier: 1,
		IsAlive:          true,
		PrimaryWeapon:    WeaponBlaster,
		Abilities:        make(map[AbilityKind]bool),
		ShieldRegenRate:  cfg.ShieldRegenRate,
		ShieldRegenDelay: cfg.ShieldRegenDelay,
		EnergyRegenRate:  cfg.EnergyRegenRate,
		InvulnTime:       cfg.InvulnerabilityTime,
		ExpPerLevel:      expPerLevel,
	}
}

// TakeDamage drains shields first and the rest from health. Health stops
// at 0. Returns true only for the hit that kills.
func (s *PlayerStats) TakeDamage(amount float64) bool {
	if !s.IsAlive || amount <= 0 {
		return false
	}
	shieldDmg := amount
	if shieldDmg > s.Shields {
		shieldDmg = s.Shields
	}
	s.Shields -= shieldDmg
	s.Health -= amount - shieldDmg
	s.regenDelay = s.ShieldRegenDelay

	if s.Health <= 0 {
		s.Health = 0
		s.IsAlive = false
		return true
	}
	return false
}

// Invulnerable reports whether the post-hit grace window is running
func (s *PlayerStats) Invulnerable() bool {
	return s.invuln > 0
}

// StartGrace opens the post-hit invulnerability window
func (s *PlayerStats) StartGrace() {
	s.invuln = s.InvulnTime
}

// ExpToNextLevel is the threshold for the current level. Zero values fall
// back to level 1 and DefaultExpPerLevel.
func (s *PlayerStats) ExpToNextLevel() float64 {
	level, per := s.Level, s.ExpPerLevel
	if level < 1 {
		level = 1
	}
	if per <= 0 {
		per = DefaultExpPerLevel
	}
	return float64(level) * per
}

// AddExperience adds xp and levels up as many times as it covers.
// Returns true if at least one level was gained.
func (s *PlayerStats) AddExperience(amount float64) bool {
	if amount <= 0 {
		return false
	}
	s.Experience += amount
	leveled := false
	for s.Experience >= s.ExpToNextLevel() {
		s.Experience -= s.ExpToNextLevel()
		s.Level++
		leveled = true
	}
	return leveled
}

// Heal restores health up to the maximum
func (s *PlayerStats) Heal(amount float64) {
	if !s.IsAlive || amount <= 0 {
		return
	}
	s.Health = Clamp(s.Health+amount, 0, s.MaxHealth)
}

// RestoreEnergy refills special energy up to the maximum
func (s *PlayerStats) RestoreEnergy(amount float64) {
	if amount <= 0 {
		return
	}
	s.SpecialEnergy = Clamp(s.SpecialEnergy+amount, 0, s.MaxEnergy)
}

// SpendEnergy deducts energy if enough is available
func (s *PlayerStats) SpendEnergy(amount float64) bool {
	if amount > s.SpecialEnergy {
		return false
	}
	s.SpecialEnergy -= amount
	return true
}

// AddCurrency adds credits
func (s *PlayerStats) AddCurrency(n int) {
	if n > 0 {
		s.Currency += n
	}
}

// SpendCurrency deducts credits if enough are available
func (s *PlayerStats) SpendCurrency(n int) bool {
	if n < 0 || n > s.Currency {
		return false
	}
	s.Currency -= n
	return true
}

// Unlock marks an ability unlocked. Returns false if it already was.
func (s *PlayerStats) Unlock(a AbilityKind) bool {
	if s.Abilities[a] {
		return false
	}
	s.Abilities[a] = true
	return true
}

// Has reports whether an ability is unlocked
func (s *PlayerStats) Has(a AbilityKind) bool {
	return s.Abilities[a]
}

// Update runs timers and regeneration
func (s *PlayerStats) Update(dt float64) {
	if !s.IsAlive {
		return
	}
	if s.invuln > 0 {
		s.invuln -= dt
	}
	if s.regenDelay > 0 {
		s.regenDelay -= dt
	} else if s.Shields < s.MaxShields {
		s.Shields = Clamp(s.Shields+s.ShieldRegenRate*dt, 0, s.MaxShields)
	}
	if s.SpecialEnergy < s.MaxEnergy {
		s.SpecialEnergy = Clamp(s.SpecialEnergy+s.EnergyRegenRate*dt, 0, s.MaxEnergy)
	}
}
