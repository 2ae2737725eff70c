package main

import "testing"

func newTestLoot() LootTable {
	cfg := DefaultConfig()
	return NewLootTable(cfg.Loot, cfg.Enemies)
}

func TestLootExperienceAndCurrencyAlwaysDrop(t *testing.T) {
	lt := newTestLoot()
	drops := lt.RollDrops(EnemySnapshot{Type: EnemyTank, MaxHealth: 80}, &seqRand{vals: []float64{0.99, 0.99}})
	if len(drops) != 2 {
		t.Fatalf("expected xp and currency only, got %v", drops)
	}
	if drops[0].Kind != LootExperience || drops[0].Amount != 18 {
		t.Errorf("expected 18 xp first, got %v", drops[0])
	}
	if drops[1].Kind != LootCurrency || drops[1].Credits != 15 {
		t.Errorf("expected 15 credits last, got %v", drops[1])
	}
}

func TestLootHealthRolledFirst(t *testing.T) {
	lt := newTestLoot()
	// health roll 0.1 < 0.2 drops; energy roll 0.5 >= 0.1 does not
	drops := lt.RollDrops(EnemySnapshot{Type: EnemyChaser, MaxHealth: 30}, &seqRand{vals: []float64{0.1, 0.5}})
	if len(drops) != 3 || drops[1].Kind != LootHealth || drops[1].Amount != 25 {
		t.Fatalf("expected a health pack, got %v", drops)
	}

	// health roll 0.5 misses, energy roll 0.05 drops
	drops = lt.RollDrops(EnemySnapshot{Type: EnemyChaser, MaxHealth: 30}, &seqRand{vals: []float64{0.5, 0.05}})
	if len(drops) != 3 || drops[1].Kind != LootEnergy || drops[1].Amount != 30 {
		t.Fatalf("expected an energy cell, got %v", drops)
	}
}

func TestLootReproducible(t *testing.T) {
	lt := newTestLoot()
	e := EnemySnapshot{Type: EnemyShooter, MaxHealth: 20}
	vals := []float64{0.15, 0.05, 0.7, 0.3, 0.01, 0.02}
	a, b := &seqRand{vals: vals}, &seqRand{vals: vals}
	for i := 0; i < 3; i++ {
		da, db := lt.RollDrops(e, a), lt.RollDrops(e, b)
		if len(da) != len(db) {
			t.Fatalf("roll %d: %d vs %d drops", i, len(da), len(db))
		}
		for j := range da {
			if da[j] != db[j] {
				t.Errorf("roll %d drop %d: %v vs %v", i, j, da[j], db[j])
			}
		}
	}
}

func TestLootModifiersApply(t *testing.T) {
	m := LootModifiers{Experience: 2, Health: 0.5, Energy: 1, Currency: 1.5}
	if d := m.Apply(LootDrop{Kind: LootExperience, Amount: 10}); d.Amount != 20 {
		t.Errorf("expected 20 xp, got %v", d.Amount)
	}
	if d := m.Apply(LootDrop{Kind: LootHealth, Amount: 25}); d.Amount != 12.5 {
		t.Errorf("expected 12.5 heal, got %v", d.Amount)
	}
	if d := m.Apply(LootDrop{Kind: LootCurrency, Credits: 5}); d.Credits != 8 {
		t.Errorf("expected 8 credits, got %d", d.Credits)
	}
}
