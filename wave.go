package main

// WaveState is the wave lifecycle phase
type WaveState uint8

const (
	WavePreparing WaveState = iota
	WaveActive
	WavePaused
	WaveComplete
	WaveShopPhase
)

var waveStateNames = [...]string{"preparing", "active", "paused", "complete", "shop"}

func (s WaveState) String() string {
	if int(s) < len(waveStateNames) {
		return waveStateNames[s]
	}
	return "unknown"
}

// WaveEventKind tags a WaveEvent
type WaveEventKind uint8

const (
	EventWaveStarted WaveEventKind = iota
	EventWaveComplete
	EventSpawnEnemy
	EventShopPhaseStarted
)

// EnemySpawnData is a spawn request. It is created by the wave manager
// and consumed once by the session spawner.
type EnemySpawnData struct {
	Type                 EnemyType
	Position             Vec3
	DifficultyMultiplier float64
}

// WaveEvent is one output of WaveManager.Update. Spawn is only set for
// EventSpawnEnemy.
type WaveEvent struct {
	Kind  WaveEventKind
	Wave  int
	Spawn EnemySpawnData
}

// DefaultTiers returns the enemy mix per wave bucket
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{MaxWave: 2, Mix: []TierWeight{
			{Type: EnemyChaser, Chance: 0.8},
			{Type: EnemyShooter, Chance: 0.2},
		}},
		{MaxWave: 5, Mix: []TierWeight{
			{Type: EnemyChaser, Chance: 0.5},
			{Type: EnemyShooter, Chance: 0.3},
			{Type: EnemyTank, Chance: 0.2},
		}},
		{MaxWave: 0, Mix: []TierWeight{
			{Type: EnemyChaser, Chance: 0.4},
			{Type: EnemyShooter, Chance: 0.3},
			{Type: EnemyTank, Chance: 0.3},
		}},
	}
}

// WaveManager drives the wave lifecycle. It is not safe for concurrent
// use; the owning session serialises all calls. Fields are exported for
// reading only and change only through the methods below.
type WaveManager struct {
	CurrentWave          int
	State                WaveState
	WaveTimer            float64
	EnemiesSpawned       int
	EnemiesToSpawn       int
	SpawnTimer           float64
	SpawnInterval        float64
	EnemiesAlive         int
	DifficultyMultiplier float64
	CanPause             bool

	curve    DifficultyCurve
	prepTime float64
	maxAlive int
	tiers    []TierConfig
	catalog  *EnemyCatalog
	sampler  SpawnSampler
	rng      RandSource
}

// NewWaveManager creates a manager in Preparing for wave 1
func NewWaveManager(cfg *GameConfig, catalog *EnemyCatalog, sampler SpawnSampler, rng RandSource) *WaveManager {
	curve := NewDifficultyCurve(cfg.Waves)
	return &WaveManager{
		CurrentWave:          1,
		State:                WavePreparing,
		SpawnInterval:        curve.BaseInterval,
		DifficultyMultiplier: 1,
		CanPause:             true,
		curve:                curve,
		prepTime:             cfg.Waves.PrepTime,
		maxAlive:             cfg.Enemies.MaxEnemiesOnScreen,
		tiers:                cfg.Waves.Tiers,
		catalog:              catalog,
		sampler:              sampler,
		rng:                  rng,
	}
}

// Curve returns the difficulty curve in use
func (w *WaveManager) Curve() DifficultyCurve {
	return w.curve
}

// SetSampler replaces the spawn position sampler
func (w *WaveManager) SetSampler(s SpawnSampler) {
	w.sampler = s
}

// StartWave enters Active and resets the per-wave counters. EnemiesAlive
// carries over since it only changes through EnemyKilled.
func (w *WaveManager) StartWave() {
	w.State = WaveActive
	w.WaveTimer = 0
	w.SpawnTimer = 0
	w.EnemiesSpawned = 0
	w.EnemiesToSpawn = w.curve.EnemyCount(w.CurrentWave)
	w.DifficultyMultiplier = w.curve.Multiplier(w.CurrentWave)
}

// Update advances the current state by dt seconds and returns the events
// it produced in order. At most one enemy is spawned per call.
func (w *WaveManager) Update(dt float64) []WaveEvent {
	var events []WaveEvent

	switch w.State {
	case WavePreparing:
		w.WaveTimer += dt
		if w.WaveTimer >= w.prepTime {
			w.StartWave()
			events = append(events, WaveEvent{Kind: EventWaveStarted, Wave: w.CurrentWave})
		}

	case WaveActive:
		w.WaveTimer += dt
		w.SpawnTimer += dt
		if w.EnemiesSpawned < w.EnemiesToSpawn && w.SpawnTimer >= w.SpawnInterval && !w.atCapacity() {
			events = append(events, WaveEvent{Kind: EventSpawnEnemy, Wave: w.CurrentWave, Spawn: w.nextSpawn()})
			w.EnemiesSpawned++
			w.EnemiesAlive++
			w.SpawnTimer = 0
		}
		if w.EnemiesSpawned >= w.EnemiesToSpawn && w.EnemiesAlive == 0 {
			w.State = WaveComplete
			events = append(events, WaveEvent{Kind: EventWaveComplete, Wave: w.CurrentWave})
			events = append(events, w.enterShop())
		}

	case WaveComplete:
		events = append(events, w.enterShop())
	}

	return events
}

func (w *WaveManager) enterShop() WaveEvent {
	w.State = WaveShopPhase
	w.WaveTimer = 0
	return WaveEvent{Kind: EventShopPhaseStarted, Wave: w.CurrentWave}
}

func (w *WaveManager) atCapacity() bool {
	return w.maxAlive > 0 && w.EnemiesAlive >= w.maxAlive
}

// nextSpawn draws the enemy type first, then the position
func (w *WaveManager) nextSpawn() EnemySpawnData {
	t := w.pickType(w.CurrentWave, w.rng.Float64())
	return EnemySpawnData{
		Type:                 t,
		Position:             w.sampler.Sample(w.rng),
		DifficultyMultiplier: w.DifficultyMultiplier,
	}
}

// pickType finds the first bucket covering wave, then the first entry
// whose cumulative chance exceeds roll
func (w *WaveManager) pickType(wave int, roll float64) EnemyType {
	for _, tier := range w.tiers {
		if tier.MaxWave != 0 && wave > tier.MaxWave {
			continue
		}
		if len(tier.Mix) == 0 {
			break
		}
		acc := 0.0
		for _, m := range tier.Mix {
			acc += m.Chance
			if roll < acc {
				return m.Type
			}
		}
		return tier.Mix[len(tier.Mix)-1].Type
	}
	return w.catalog.Pick(roll)
}

// PauseWave pauses an active wave once per wave
func (w *WaveManager) PauseWave() bool {
	if !w.CanPause || w.State != WaveActive {
		return false
	}
	w.State = WavePaused
	w.CanPause = false
	return true
}

// ResumeWave returns a paused wave to Active without touching its timers
func (w *WaveManager) ResumeWave() bool {
	if w.State != WavePaused {
		return false
	}
	w.State = WaveActive
	return true
}

// CompleteShopPhase moves to the next wave's Preparing state
func (w *WaveManager) CompleteShopPhase() bool {
	if w.State != WaveShopPhase {
		return false
	}
	w.CurrentWave++
	w.State = WavePreparing
	w.WaveTimer = 0
	w.CanPause = true
	w.SpawnInterval = w.curve.NextInterval(w.SpawnInterval)
	return true
}

// EnemyKilled records one enemy death. The host calls it exactly once per
// death; extra calls never push the count below zero.
func (w *WaveManager) EnemyKilled() {
	if w.EnemiesAlive > 0 {
		w.EnemiesAlive--
	}
}
