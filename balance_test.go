package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

func TestSimulateDeterministic(t *testing.T) {
	a := Simulate(DefaultConfig(), 3, 7)
	b := Simulate(DefaultConfig(), 3, 7)
	if !reflect.DeepEqual(a, b) {
		t.Error("same config and seed should give the same report")
	}
}

func TestSimulateWaves(t *testing.T) {
	cfg := DefaultConfig()
	r := Simulate(cfg, 3, 1)
	if len(r.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(r.Waves))
	}

	curve := NewDifficultyCurve(cfg.Waves)
	kills := 0
	for i, w := range r.Waves {
		if w.Wave != i+1 {
			t.Errorf("wave %d numbered %d", i+1, w.Wave)
		}
		if w.Enemies != curve.EnemyCount(w.Wave) {
			t.Errorf("wave %d: expected %d enemies, got %d", w.Wave, curve.EnemyCount(w.Wave), w.Enemies)
		}
		mixed := 0
		for _, n := range w.Mix {
			mixed += n
		}
		if mixed != w.Enemies {
			t.Errorf("wave %d: mix %v does not add up to %d", w.Wave, w.Mix, w.Enemies)
		}
		kills += mixed
		if w.Credits <= 0 || w.Experience <= 0 {
			t.Errorf("wave %d should award loot, got %+v", w.Wave, w)
		}
	}
	if r.TotalKills != kills {
		t.Errorf("expected %d kills, got %d", kills, r.TotalKills)
	}
	if _, ok := r.Waves[0].Mix["tank"]; ok {
		t.Error("tanks should not appear on wave 1")
	}
	if math.Abs(r.Waves[1].SpawnInterval-1.9) > 1e-9 {
		t.Errorf("expected wave 2 interval 1.9, got %v", r.Waves[1].SpawnInterval)
	}
	if r.Waves[0].PlayerLevel < 2 || len(r.Waves[0].Picks) == 0 {
		t.Errorf("wave 1 loot should buy at least one level-up, got %+v", r.Waves[0])
	}
	if r.RunCredits != CreditsPerRun(3, kills, 3) {
		t.Errorf("unexpected run credits %d", r.RunCredits)
	}
}

func TestSimulateShopSpendsCredits(t *testing.T) {
	r := Simulate(DefaultConfig(), 2, 1)
	spent := 0
	for _, w := range r.Waves {
		spent += len(w.Purchases)
	}
	if spent == 0 {
		t.Error("the bot should buy something over two waves")
	}
}

func TestRunSimulationWritesYAML(t *testing.T) {
	var buf bytes.Buffer
	if _, err := RunSimulation(DefaultConfig(), 2, 0, &buf, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	var r SimReport
	if err := yaml.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("report is not YAML: %v", err)
	}
	if r.Seed != defaultSimSeed || len(r.Waves) != 2 {
		t.Errorf("unexpected report seed %d waves %d", r.Seed, len(r.Waves))
	}

	if _, err := RunSimulation(DefaultConfig(), 0, 1, &buf, nil); err == nil {
		t.Error("zero waves should be an error")
	}
}

func TestSimulateStepLimitPerWave(t *testing.T) {
	prev := simStepLimit
	defer func() { simStepLimit = prev }()

	// wave 1 needs 3s of prep plus 10 spawns at 2s, far more than 100 ticks
	simStepLimit = 100
	r := Simulate(DefaultConfig(), 2, 1)
	if !r.Truncated {
		t.Fatal("report should be truncated")
	}
	if len(r.Waves) > 1 {
		t.Errorf("expected to stop in wave 1, got %d waves", len(r.Waves))
	}
	var buf bytes.Buffer
	if _, err := RunSimulation(DefaultConfig(), 2, 1, &buf, nil); err == nil {
		t.Error("truncated run should be an error")
	}

	// about 5900 ticks in total but under 2700 per wave
	simStepLimit = 4000
	if r := Simulate(DefaultConfig(), 3, 1); r.Truncated || len(r.Waves) != 3 {
		t.Errorf("three short waves should fit, truncated=%v waves=%d", r.Truncated, len(r.Waves))
	}
}

func TestSimulateUsesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waves.BaseEnemyCount = 3
	r := Simulate(cfg, 1, 1)
	if r.Waves[0].Enemies != 3 || r.TotalKills != 3 {
		t.Errorf("expected 3 enemies, got %+v", r.Waves[0])
	}
}

func TestReportStoreDegraded(t *testing.T) {
	s := &ReportStore{}
	if err := s.Save("x", SimReport{Seed: 1}); err != nil {
		t.Errorf("degraded save should be a no-op, got %v", err)
	}
	if r, err := s.Load("x"); r != nil || err != nil {
		t.Errorf("degraded load should find nothing, got %v %v", r, err)
	}
}

func TestReportStoreRoundTrip(t *testing.T) {
	appName := fmt.Sprintf("void_survivor_test_%d", time.Now().UnixNano())
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Skipf("gdata unavailable: %v", err)
	}
	t.Cleanup(func() {
		if home, err := os.UserHomeDir(); err == nil {
			os.RemoveAll(filepath.Join(home, ".local", "share", appName))
		}
	})
	store := &ReportStore{m: m}

	report := Simulate(DefaultConfig(), 2, 5)
	name := reportName(2, 5)
	if err := store.Save(name, report); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, key := range []string{name, reportLatest} {
		got, err := store.Load(key)
		if err != nil || got == nil {
			t.Fatalf("load %s: %v %v", key, got, err)
		}
		if got.TotalKills != report.TotalKills || len(got.Waves) != 2 || got.Waves[0].Mix["chaser"] != report.Waves[0].Mix["chaser"] {
			t.Errorf("%s: report changed in storage", key)
		}
	}
	if got, err := store.Load("missing"); got != nil || err != nil {
		t.Errorf("missing report should be nil, got %v %v", got, err)
	}
}
