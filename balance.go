package main

import (
	"fmt"
	"io"
	"log"
	"math/rand"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const (
	reportAppName  = "void_survivor"
	reportObject   = "balance"
	reportLatest   = "latest"
	defaultSimSeed = 1
)

// SimWave is one wave of a simulated run
type SimWave struct {
	Wave          int            `yaml:"wave"`
	Enemies       int            `yaml:"enemies"`
	SpawnInterval float64        `yaml:"spawn_interval"`
	Multiplier    float64        `yaml:"multiplier"`
	Mix           map[string]int `yaml:"mix"`
	Experience    float64        `yaml:"experience"`
	Credits       int            `yaml:"credits"`
	PlayerLevel   int            `yaml:"player_level"`
	Duration      float64        `yaml:"duration"`
	Picks         []string       `yaml:"picks,omitempty"`
	Purchases     []string       `yaml:"purchases,omitempty"`
}

// SimReport is the outcome of a headless balance run
type SimReport struct {
	Seed         int64     `yaml:"seed"`
	Waves        []SimWave `yaml:"waves"`
	TotalKills   int       `yaml:"total_kills"`
	FinalLevel   int       `yaml:"final_level"`
	FinalCredits int       `yaml:"final_credits"`
	RunCredits   int       `yaml:"run_credits"` // account credits the run would award
	Truncated    bool      `yaml:"truncated,omitempty"`
}

// simStepLimit bounds the ticks of a single simulated wave
var simStepLimit = 10_000_000

// Simulate plays waves waves with a bot that kills every enemy the tick it
// spawns, takes the first level-up choice and buys the first affordable
// shop item until it can afford none. The same cfg and seed always give
// the same report.
func Simulate(cfg *GameConfig, waves int, seed int64) SimReport {
	rng := rand.New(rand.NewSource(seed))
	catalog := NewEnemyCatalog(cfg.Enemies)
	loot := NewLootTable(cfg.Loot, cfg.Enemies)
	wm := NewWaveManager(cfg, catalog, NewSpawnSampler(cfg, Vec3{}), rng)

	var shuffle RandSource
	if cfg.Upgrades.ShuffleChoices {
		shuffle = rng
	}
	stats := NewPlayerStats(cfg.Player, cfg.Upgrades.ExpPerLevel)
	um := NewUpgradeManager(cfg.Upgrades.LevelUp, cfg.Upgrades.Shop, shuffle)
	um.SetAbilityHook(UnlockAbility)

	report := SimReport{Seed: seed}
	var cur *SimWave
	dt := 1.0 / float64(TickRate)

	for steps := 0; wm.CurrentWave <= waves; steps++ {
		if steps >= simStepLimit {
			log.Printf("simulate: wave %d exceeded %d steps, report truncated", wm.CurrentWave, simStepLimit)
			report.Truncated = true
			break
		}
		if cur != nil {
			cur.Duration += dt
		}
		for _, ev := range wm.Update(dt) {
			switch ev.Kind {
			case EventWaveStarted:
				report.Waves = append(report.Waves, SimWave{
					Wave:          ev.Wave,
					Enemies:       wm.EnemiesToSpawn,
					SpawnInterval: round2(wm.SpawnInterval),
					Multiplier:    round2(wm.DifficultyMultiplier),
					Mix:           make(map[string]int),
				})
				cur = &report.Waves[len(report.Waves)-1]

			case EventSpawnEnemy:
				st, ok := catalog.Stats(ev.Spawn.Type)
				if !ok {
					wm.EnemyKilled()
					continue
				}
				e := NewEnemy(ev.Spawn, st)
				e.TakeDamage(e.HP/(1-e.Armor) + 1)
				wm.EnemyKilled()
				report.TotalKills++
				cur.Mix[e.Type.String()]++

				before := stats.Level
				for _, d := range loot.RollDrops(e.Snapshot(), rng) {
					d = cfg.Loot.Modifiers.Apply(d)
					pk := Pickup{Drop: d, Alive: true}
					pk.Collect(stats)
					switch d.Kind {
					case LootExperience:
						cur.Experience += d.Amount
					case LootCurrency:
						cur.Credits += d.Credits
					}
				}
				for i := before; i < stats.Level; i++ {
					choices := um.LevelupChoices(cfg.Upgrades.MaxUpgradeChoices)
					if len(choices) == 0 {
						break
					}
					if um.ApplyUpgrade(choices[0], stats) {
						cur.Picks = append(cur.Picks, choices[0].Name)
					}
					um.ClearOffer()
				}

			case EventShopPhaseStarted:
				cur.Purchases = botShop(um, stats)
				cur.PlayerLevel = stats.Level
				cur.Experience = round1(cur.Experience)
				cur.Duration = round1(cur.Duration)
				cur = nil
				wm.CompleteShopPhase()
				steps = 0
			}
		}
	}

	report.FinalLevel = stats.Level
	report.FinalCredits = stats.Currency
	report.RunCredits = CreditsPerRun(len(report.Waves), report.TotalKills, len(report.Waves))
	return report
}

// botShop buys the first affordable item until nothing is affordable
func botShop(um *UpgradeManager, stats *PlayerStats) []string {
	var bought []string
	for {
		purchased := false
		for i, item := range um.ShopItems() {
			if item.Price() > stats.Currency {
				continue
			}
			if u, ok := um.Purchase(i, stats); ok {
				bought = append(bought, u.Name)
				purchased = true
				break
			}
		}
		if !purchased {
			return bought
		}
	}
}

// ReportStore keeps simulation reports in the per-user data directory.
// A nil manager means degraded mode: saves are dropped, loads find nothing.
type ReportStore struct {
	m *gdata.Manager
}

// OpenReportStore opens the report store for appName, falling back to
// degraded mode if the data directory is unavailable
func OpenReportStore(appName string) *ReportStore {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("report store unavailable, reports will not be saved: %v", err)
		return &ReportStore{}
	}
	return &ReportStore{m: m}
}

// Save stores r under name and as the latest report
func (s *ReportStore) Save(name string, r SimReport) error {
	if s.m == nil {
		return nil
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	for _, key := range []string{name, reportLatest} {
		if err := s.m.SaveObjectProp(reportObject, key, data); err != nil {
			return fmt.Errorf("save report %s: %w", key, err)
		}
	}
	return nil
}

// Load returns the report stored under name, or nil if there is none
func (s *ReportStore) Load(name string) (*SimReport, error) {
	if s.m == nil || !s.m.ObjectPropExists(reportObject, name) {
		return nil, nil
	}
	data, err := s.m.LoadObjectProp(reportObject, name)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", name, err)
	}
	var r SimReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", name, err)
	}
	return &r, nil
}

// reportName is the store key of a run
func reportName(waves int, seed int64) string {
	return fmt.Sprintf("waves%d_seed%d", waves, seed)
}

// RunSimulation simulates, writes the YAML report to out and stores it.
// store may be nil.
func RunSimulation(cfg *GameConfig, waves int, seed int64, out io.Writer, store *ReportStore) (SimReport, error) {
	if waves < 1 {
		return SimReport{}, fmt.Errorf("simulate: wave count must be positive, got %d", waves)
	}
	if seed == 0 {
		seed = defaultSimSeed
	}
	report := Simulate(cfg, waves, seed)

	if store != nil && !report.Truncated {
		if prev, err := store.Load(reportName(waves, seed)); err != nil {
			log.Printf("previous report: %v", err)
		} else if prev != nil && prev.TotalKills != report.TotalKills {
			log.Printf("balance changed since last run: kills %d -> %d, final level %d -> %d",
				prev.TotalKills, report.TotalKills, prev.FinalLevel, report.FinalLevel)
		}
		if err := store.Save(reportName(waves, seed), report); err != nil {
			log.Printf("store report: %v", err)
		}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return report, fmt.Errorf("write report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return report, err
	}
	if report.Truncated {
		return report, fmt.Errorf("simulate: stopped at wave %d of %d, raise the spawn interval or lower enemy scaling", len(report.Waves), waves)
	}
	return report, nil
}
