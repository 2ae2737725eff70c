package main

import (
	"math"
	"math/rand"
	"testing"
)

// seqRand replays a fixed sequence of rolls, repeating the last one
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i]
	if r.i < len(r.vals)-1 {
		r.i++
	}
	return v
}

func newTestWaves(cfg *GameConfig) *WaveManager {
	return NewWaveManager(cfg, NewEnemyCatalog(cfg.Enemies), NewSpawnSampler(cfg, Vec3{}), rand.New(rand.NewSource(1)))
}

// runUntil steps w until an event of kind fires or steps run out
func runUntil(w *WaveManager, kind WaveEventKind, steps int) (WaveEvent, bool) {
	for i := 0; i < steps; i++ {
		for _, ev := range w.Update(0.1) {
			if ev.Kind == kind {
				return ev, true
			}
		}
	}
	return WaveEvent{}, false
}

func TestWavePreparingStartsAfterPrepTime(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	if w.State != WavePreparing || w.CurrentWave != 1 {
		t.Fatalf("expected preparing wave 1, got %s wave %d", w.State, w.CurrentWave)
	}

	if evs := w.Update(2.9); len(evs) != 0 {
		t.Errorf("wave should not start before prep time, got %v", evs)
	}
	evs := w.Update(0.2)
	if len(evs) != 1 || evs[0].Kind != EventWaveStarted || evs[0].Wave != 1 {
		t.Fatalf("expected wave started event, got %v", evs)
	}
	if w.State != WaveActive {
		t.Errorf("expected active, got %s", w.State)
	}
	if w.EnemiesToSpawn != 10 {
		t.Errorf("expected 10 enemies, got %d", w.EnemiesToSpawn)
	}
}

func TestWaveSpawnsOnePerInterval(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	w.StartWave()

	if evs := w.Update(1.9); len(evs) != 0 {
		t.Fatalf("no spawn before the interval, got %v", evs)
	}
	evs := w.Update(0.2)
	if len(evs) != 1 || evs[0].Kind != EventSpawnEnemy {
		t.Fatalf("expected one spawn, got %v", evs)
	}
	if w.EnemiesSpawned != 1 || w.EnemiesAlive != 1 {
		t.Errorf("expected 1 spawned 1 alive, got %d %d", w.EnemiesSpawned, w.EnemiesAlive)
	}
	// a huge step still yields a single spawn
	evs = w.Update(100)
	if len(evs) != 1 {
		t.Errorf("expected at most one spawn per update, got %d events", len(evs))
	}
}

func TestWaveSpawnCarriesMultiplier(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	w.CurrentWave = 6
	w.StartWave()
	ev, ok := runUntil(w, EventSpawnEnemy, 100)
	if !ok {
		t.Fatal("expected a spawn")
	}
	if ev.Spawn.DifficultyMultiplier != w.DifficultyMultiplier {
		t.Errorf("spawn multiplier %v, wave multiplier %v", ev.Spawn.DifficultyMultiplier, w.DifficultyMultiplier)
	}
}

func TestWaveRespectsMaxAlive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enemies.MaxEnemiesOnScreen = 2
	w := newTestWaves(cfg)
	w.StartWave()

	spawns := 0
	for i := 0; i < 100; i++ {
		for _, ev := range w.Update(1) {
			if ev.Kind == EventSpawnEnemy {
				spawns++
			}
		}
	}
	if spawns != 2 || w.EnemiesAlive != 2 {
		t.Errorf("expected 2 spawns capped, got %d spawned %d alive", spawns, w.EnemiesAlive)
	}

	w.EnemyKilled()
	if _, ok := runUntil(w, EventSpawnEnemy, 100); !ok {
		t.Error("a kill should free a slot")
	}
}

func TestWaveCompletesAndEntersShop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waves.BaseEnemyCount = 2
	w := newTestWaves(cfg)
	w.StartWave()

	for w.EnemiesSpawned < w.EnemiesToSpawn {
		w.Update(1)
	}
	if w.State != WaveActive {
		t.Fatalf("wave should stay active while enemies live, got %s", w.State)
	}
	w.EnemyKilled()
	w.EnemyKilled()

	evs := w.Update(0.1)
	if len(evs) != 2 || evs[0].Kind != EventWaveComplete || evs[1].Kind != EventShopPhaseStarted {
		t.Fatalf("expected complete then shop, got %v", evs)
	}
	if w.State != WaveShopPhase {
		t.Errorf("expected shop phase, got %s", w.State)
	}
}

func TestWaveCompleteShopPhaseAdvances(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	if w.CompleteShopPhase() {
		t.Error("CompleteShopPhase outside the shop should fail")
	}
	w.State = WaveShopPhase
	if !w.CompleteShopPhase() {
		t.Fatal("CompleteShopPhase should succeed in the shop")
	}
	if w.CurrentWave != 2 || w.State != WavePreparing {
		t.Errorf("expected preparing wave 2, got %s wave %d", w.State, w.CurrentWave)
	}
	if math.Abs(w.SpawnInterval-1.9) > 1e-9 {
		t.Errorf("expected interval 1.9, got %v", w.SpawnInterval)
	}
	if !w.CanPause {
		t.Error("pause should be available again")
	}
}

func TestWavePauseOncePerWave(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	if w.PauseWave() {
		t.Error("cannot pause while preparing")
	}
	w.StartWave()
	if !w.PauseWave() {
		t.Fatal("should pause an active wave")
	}
	if evs := w.Update(100); len(evs) != 0 {
		t.Errorf("paused wave should not produce events, got %v", evs)
	}
	if !w.ResumeWave() {
		t.Fatal("should resume")
	}
	if w.PauseWave() {
		t.Error("second pause in the same wave should fail")
	}
	if w.ResumeWave() {
		t.Error("resume of an active wave should fail")
	}
}

func TestWaveEnemyKilledNeverNegative(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	w.EnemyKilled()
	if w.EnemiesAlive != 0 {
		t.Errorf("alive count went negative: %d", w.EnemiesAlive)
	}
}

func TestWavePickTypeByTier(t *testing.T) {
	w := newTestWaves(DefaultConfig())
	tests := []struct {
		wave int
		roll float64
		want EnemyType
	}{
		{1, 0.1, EnemyChaser},
		{1, 0.85, EnemyShooter},
		{2, 0.99, EnemyShooter}, // no tanks before wave 3
		{3, 0.9, EnemyTank},
		{3, 0.6, EnemyShooter},
		{10, 0.35, EnemyChaser},
		{10, 0.75, EnemyTank},
	}
	for _, tt := range tests {
		if got := w.pickType(tt.wave, tt.roll); got != tt.want {
			t.Errorf("pickType(%d, %v) = %s, want %s", tt.wave, tt.roll, got, tt.want)
		}
	}
}

func TestWaveSpawnUsesSampler(t *testing.T) {
	cfg := DefaultConfig()
	w := NewWaveManager(cfg, NewEnemyCatalog(cfg.Enemies), CircleSampler{Radius: 30}, &seqRand{vals: []float64{0.5, 0}})
	w.StartWave()
	ev, ok := runUntil(w, EventSpawnEnemy, 100)
	if !ok {
		t.Fatal("expected a spawn")
	}
	// roll 0.5 picks a chaser, angle 0 puts it on +X
	if ev.Spawn.Type != EnemyChaser {
		t.Errorf("expected chaser, got %s", ev.Spawn.Type)
	}
	if d := FlatDistance(ev.Spawn.Position, Vec3{}); d < 29.99 || d > 30.01 {
		t.Errorf("spawn should sit on the circle, distance %v", d)
	}
}
