package main

import "testing"

func newTestEnemy(t EnemyType, mult float64, pos Vec3) *Enemy {
	cat := NewEnemyCatalog(DefaultConfig().Enemies)
	st, _ := cat.Stats(t)
	return NewEnemy(EnemySpawnData{Type: t, Position: pos, DifficultyMultiplier: mult}, st)
}

func TestEnemyScaledByMultiplier(t *testing.T) {
	e := newTestEnemy(EnemyChaser, 2, Vec3{})
	if e.MaxHP != 60 || e.HP != 60 {
		t.Errorf("expected 60 HP, got %v/%v", e.HP, e.MaxHP)
	}
	if e.Damage != 30 {
		t.Errorf("expected 30 damage, got %v", e.Damage)
	}
	if e.Speed != 3 {
		t.Errorf("speed should not scale, got %v", e.Speed)
	}
}

func TestEnemyMultiplierFloor(t *testing.T) {
	e := newTestEnemy(EnemyChaser, 0, Vec3{})
	if e.MaxHP != 30 {
		t.Errorf("multiplier below 1 should be treated as 1, got HP %v", e.MaxHP)
	}
}

func TestEnemyArmorReducesDamage(t *testing.T) {
	e := newTestEnemy(EnemyTank, 1, Vec3{})
	e.TakeDamage(50) // 20% armor: 40 dealt
	if e.HP != 40 {
		t.Errorf("expected 40 HP, got %v", e.HP)
	}
	if !e.TakeDamage(50) {
		t.Error("second hit should kill")
	}
	if e.HP != 0 || e.Alive {
		t.Errorf("dead tank should have 0 HP, got %v alive=%v", e.HP, e.Alive)
	}
	if e.TakeDamage(50) {
		t.Error("dead enemy cannot die again")
	}
}

func TestEnemySeeksTarget(t *testing.T) {
	e := newTestEnemy(EnemyChaser, 1, Vec3{})
	target := Vec3{X: 10}
	before := FlatDistance(e.Pos, target)
	act := e.Update(0.1, target, true)
	if e.State != AISeeking {
		t.Errorf("expected seeking, got %d", e.State)
	}
	if act.Melee || act.Fire {
		t.Error("should not attack out of range")
	}
	if FlatDistance(e.Pos, target) >= before {
		t.Error("chaser should close in")
	}
}

func TestEnemyMeleeCooldown(t *testing.T) {
	e := newTestEnemy(EnemyChaser, 1, Vec3{})
	target := Vec3{X: 1}
	if act := e.Update(0.01, target, true); !act.Melee {
		t.Fatal("chaser in range should strike")
	}
	if act := e.Update(0.01, target, true); act.Melee {
		t.Error("strike should respect the cooldown")
	}
}

func TestEnemyShooterFiresAndRetreats(t *testing.T) {
	e := newTestEnemy(EnemyShooter, 1, Vec3{})
	act := e.Update(0.01, Vec3{X: 6}, true)
	if !act.Fire || e.State != AIAttacking {
		t.Errorf("shooter in range should fire, state %d fire %v", e.State, act.Fire)
	}

	e = newTestEnemy(EnemyShooter, 1, Vec3{})
	e.Update(0.1, Vec3{X: 2}, true)
	if e.State != AIRetreating {
		t.Errorf("shooter too close should retreat, got %d", e.State)
	}
	if e.Pos.X >= 0 {
		t.Error("retreat should move away from the target")
	}
}

func TestEnemyIdlesWithoutTarget(t *testing.T) {
	e := newTestEnemy(EnemyChaser, 1, Vec3{X: 3})
	act := e.Update(1, Vec3{}, false)
	if act.Melee || act.Fire || e.Pos.X != 3 {
		t.Error("enemy should idle without a target")
	}
}

func TestEnemyCatalogPickByWeight(t *testing.T) {
	cat := NewEnemyCatalog(DefaultConfig().Enemies)
	// weights 5/3/2
	tests := []struct {
		roll float64
		want EnemyType
	}{
		{0, EnemyChaser},
		{0.49, EnemyChaser},
		{0.55, EnemyShooter},
		{0.85, EnemyTank},
		{0.999, EnemyTank},
	}
	for _, tt := range tests {
		if got := cat.Pick(tt.roll); got != tt.want {
			t.Errorf("Pick(%v) = %s, want %s", tt.roll, got, tt.want)
		}
	}
}

func TestEnemyTypeNames(t *testing.T) {
	for _, et := range AllEnemyTypes {
		got, ok := ParseEnemyType(et.String())
		if !ok || got != et {
			t.Errorf("ParseEnemyType(%q) = %v %v", et.String(), got, ok)
		}
	}
	if _, ok := ParseEnemyType("dragon"); ok {
		t.Error("unknown type should not parse")
	}
}
