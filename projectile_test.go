package main

import (
	"math"
	"testing"
)

func TestNewBolt(t *testing.T) {
	cfg := BlasterConfig{Damage: 20, ProjectileSpeed: 15, Range: 30}
	p := NewBolt("owner", Vec3{X: 1, Z: 2}, 0, cfg, 20)
	if p.OwnerID != "owner" || p.Kind != ShotBolt || !p.Alive {
		t.Errorf("unexpected bolt %+v", p)
	}
	if p.Vel.X != 15 || math.Abs(p.Vel.Z) > 1e-9 {
		t.Errorf("expected velocity along +X, got %v", p.Vel)
	}
	if p.Life != 2 {
		t.Errorf("life should be range/speed = 2, got %v", p.Life)
	}

	noRange := NewBolt("owner", Vec3{}, 0, BlasterConfig{ProjectileSpeed: 15}, 20)
	if noRange.Life != ProjectileLifetime {
		t.Errorf("missing range should use the default lifetime, got %v", noRange.Life)
	}
}

func TestProjectileUpdate(t *testing.T) {
	p := NewBolt("owner", Vec3{}, math.Pi/2, BlasterConfig{ProjectileSpeed: 10, Range: 10}, 20)
	p.Update(0.1)
	if math.Abs(p.Pos.Z-1) > 1e-9 || math.Abs(p.Pos.X) > 1e-9 {
		t.Errorf("expected to move to (0,1), got %v", p.Pos)
	}
	if math.Abs(p.Life-0.9) > 1e-9 {
		t.Errorf("expected life 0.9, got %v", p.Life)
	}
}

func TestProjectileExpiry(t *testing.T) {
	p := NewBolt("owner", Vec3{}, 0, BlasterConfig{ProjectileSpeed: 10, Range: 1}, 20)
	p.Update(0.05)
	if !p.Alive {
		t.Error("should still be alive")
	}
	p.Update(0.1)
	if p.Alive {
		t.Error("should have expired")
	}
	pos := p.Pos
	p.Update(1)
	if p.Pos != pos {
		t.Error("expired shots should not move")
	}
}

func TestProjectileStrike(t *testing.T) {
	p := NewBolt("owner", Vec3{}, 0, BlasterConfig{ProjectileSpeed: 10, Range: 10}, 20)
	if !p.Strike("e1") {
		t.Fatal("first strike should count")
	}
	if p.Alive {
		t.Error("non-piercing shot should die on hit")
	}
	if p.Strike("e2") {
		t.Error("dead shot should not strike")
	}

	pierce := NewBolt("owner", Vec3{}, 0, BlasterConfig{ProjectileSpeed: 10, Range: 10}, 20)
	pierce.Pierce = 1
	if !pierce.Strike("e1") || !pierce.Alive {
		t.Fatal("piercing shot should survive its first hit")
	}
	if pierce.Strike("e1") {
		t.Error("the same enemy should not be hit twice")
	}
	if !pierce.Strike("e2") || pierce.Alive {
		t.Error("piercing shot should die once its budget is spent")
	}
}

func TestNewRocket(t *testing.T) {
	cfg := RocketConfig{Damage: 60, ExplosionRadius: 3, ProjectileSpeed: 8}
	p := NewRocket("owner", Vec3{}, 0, cfg, 60)
	if p.Kind != ShotRocket || p.Splash != 3 || p.SplashDamage != 60 {
		t.Errorf("unexpected rocket %+v", p)
	}
	if p.Radius != RocketRadius {
		t.Errorf("expected rocket radius, got %v", p.Radius)
	}
}

func TestNewEnemyShot(t *testing.T) {
	cfg := DefaultConfig()
	stats, _ := NewEnemyCatalog(cfg.Enemies).Stats(EnemyShooter)
	e := NewEnemy(EnemySpawnData{Type: EnemyShooter, Position: Vec3{X: 5}, DifficultyMultiplier: 1}, stats)

	p := NewEnemyShot(e, Vec3{X: -1})
	if p.Kind != ShotEnemy || p.OwnerID != e.ID {
		t.Errorf("unexpected shot %+v", p)
	}
	if p.Damage != e.Damage {
		t.Errorf("shot should carry enemy damage, got %v", p.Damage)
	}
	if p.Pos.X >= 5 || p.Vel.X >= 0 {
		t.Errorf("shot should leave toward -X, got pos %v vel %v", p.Pos, p.Vel)
	}
}

func TestProjectileToState(t *testing.T) {
	p := NewBolt("owner", Vec3{X: 1.234, Z: 5.678}, 0, BlasterConfig{ProjectileSpeed: 10, Range: 10}, 20)
	s := p.ToState()
	if s.ID != p.ID || s.Owner != "owner" || s.Kind != ShotBolt {
		t.Errorf("unexpected state %+v", s)
	}
	if s.X != 1.23 || s.Z != 5.68 {
		t.Errorf("expected rounded position, got %v,%v", s.X, s.Z)
	}
}
