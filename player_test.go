package main

import (
	"math"
	"math/rand"
	"testing"
)

func newTestPlayer() *Player {
	return NewPlayer("p1", "TestPilot", Vec3{}, DefaultConfig(), rand.New(rand.NewSource(1)))
}

func TestNewPlayer(t *testing.T) {
	p := newTestPlayer()
	if p.ID != "p1" || p.Name != "TestPilot" {
		t.Errorf("unexpected identity %s/%s", p.ID, p.Name)
	}
	if !p.Alive() {
		t.Error("expected player to be alive")
	}
	if p.Stats.Health != 100 || p.Stats.Shields != 50 {
		t.Errorf("expected 100/50, got %v/%v", p.Stats.Health, p.Stats.Shields)
	}
	if len(p.Upgrades.LevelupChoices(3)) != 3 {
		t.Error("expected three level-up choices")
	}
}

func TestPlayerSetInputClamps(t *testing.T) {
	p := newTestPlayer()
	p.SetInput(3, 4, 7, true)
	if math.Abs(p.MoveX-0.6) > 1e-9 || math.Abs(p.MoveZ-0.8) > 1e-9 {
		t.Errorf("movement should clamp to unit length, got %v,%v", p.MoveX, p.MoveZ)
	}
	if p.Aim > math.Pi || p.Aim < -math.Pi {
		t.Errorf("aim should be normalized, got %v", p.Aim)
	}
	if !p.Firing {
		t.Error("expected firing")
	}

	p.SetInput(0.3, 0, 0, false)
	if p.MoveX != 0.3 {
		t.Errorf("short input should pass through, got %v", p.MoveX)
	}
}

func TestPlayerUpdateMoves(t *testing.T) {
	p := newTestPlayer()
	p.SetInput(1, 0, 0, false)
	cfg := DefaultConfig()
	p.Update(1.0/60.0, cfg.Arena, Vec3{})

	if p.Vel.X <= 0 || p.Pos.X <= 0 {
		t.Errorf("expected movement along +X, got vel %v pos %v", p.Vel, p.Pos)
	}
	if p.Vel.X > p.Stats.Speed {
		t.Errorf("velocity should not exceed speed, got %v", p.Vel.X)
	}
}

func TestPlayerBoundaryDamage(t *testing.T) {
	p := newTestPlayer()
	p.Pos = Vec3{X: 30}
	cfg := DefaultConfig()

	dmg := p.Update(1.0/60.0, cfg.Arena, Vec3{})
	if dmg <= 0 {
		t.Fatal("expected boundary damage outside the arena")
	}
	if p.DamageTaken != dmg {
		t.Errorf("damage should be tracked, got %v", p.DamageTaken)
	}
	if p.Vel.X >= 0 {
		t.Errorf("ship should be pushed back toward the center, got vel %v", p.Vel)
	}

	inside := newTestPlayer()
	if d := inside.Update(1.0/60.0, cfg.Arena, Vec3{}); d != 0 {
		t.Errorf("no damage expected inside the arena, got %v", d)
	}
}

func TestPlayerHurtTracksDamage(t *testing.T) {
	p := newTestPlayer()
	p.Hurt(20)
	p.Hurt(10)
	if p.DamageTaken != 30 || p.WaveDamage != 30 {
		t.Errorf("expected 30 tracked, got %v/%v", p.DamageTaken, p.WaveDamage)
	}
	if p.Hurt(0) || p.DamageTaken != 30 {
		t.Error("zero damage should be ignored")
	}
	if !p.Hurt(500) {
		t.Error("expected a killing hit")
	}
	if p.Hurt(10) || p.DamageTaken != 530 {
		t.Errorf("dead ships take no more damage, got %v", p.DamageTaken)
	}
}

func TestPlayerDeadDoesNotMove(t *testing.T) {
	p := newTestPlayer()
	p.Stats.TakeDamage(1000)
	p.SetInput(1, 0, 0, false)
	p.Update(0.5, DefaultConfig().Arena, Vec3{})
	if p.Pos != (Vec3{}) || p.Vel != (Vec3{}) {
		t.Errorf("dead ship should stay put, got %v %v", p.Pos, p.Vel)
	}
}

func TestPlayerDash(t *testing.T) {
	p := newTestPlayer()
	cfg := DefaultConfig()
	p.WantDash = true
	p.Update(1.0/60.0, cfg.Arena, Vec3{})
	if p.Pos.X > 1 {
		t.Error("dash without the ability should do nothing")
	}

	p.Stats.Unlock(AbilityDash)
	p.WantDash = true
	p.Update(1.0/60.0, cfg.Arena, Vec3{})
	if p.Pos.X < DashDistance {
		t.Errorf("expected dash of %v, got %v", DashDistance, p.Pos.X)
	}
	if p.Cooldowns.Dash <= 0 {
		t.Error("dash should start its cooldown")
	}
	if p.WantDash {
		t.Error("dash request should be consumed")
	}
}

func TestPlayerToState(t *testing.T) {
	p := newTestPlayer()
	p.Pos = Vec3{X: 1.234, Z: -5.678}
	p.Kills = 7
	s := p.ToState()
	if s.X != 1.23 || s.Z != -5.68 {
		t.Errorf("expected rounded position, got %v,%v", s.X, s.Z)
	}
	if s.Kills != 7 || !s.Alive || s.MaxHP != 100 {
		t.Errorf("unexpected state %+v", s)
	}
}
