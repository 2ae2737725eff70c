package main

import "math"

const (
	AsteroidSpinMin = 0.2
	AsteroidSpinMax = 0.8
	AsteroidSizeVar = 0.4 // radius varies by up to this share
)

// Asteroid is a static obstacle that blocks shots and pushes ships out
type Asteroid struct {
	ID       string
	Pos      Vec3
	Radius   float64
	Rotation float64
	Spin     float64
}

// ScatterAsteroids places count asteroids inside the arena, keeping the
// player start area clear
func ScatterAsteroids(cfg ArenaConfig, center Vec3, rng RandSource) []*Asteroid {
	sampler := ScatterSampler{
		Center:        center,
		MinRadius:     cfg.StartClearRadius,
		MaxRadius:     cfg.Radius - cfg.AsteroidRadius,
		Exclude:       center,
		ExcludeRadius: cfg.StartClearRadius + cfg.AsteroidRadius,
	}
	out := make([]*Asteroid, 0, cfg.AsteroidCount)
	for i := 0; i < cfg.AsteroidCount; i++ {
		a := &Asteroid{
			ID:     GenerateID(4),
			Pos:    sampler.Sample(rng),
			Radius: cfg.AsteroidRadius * (1 - AsteroidSizeVar/2 + rng.Float64()*AsteroidSizeVar),
		}
		a.Spin = AsteroidSpinMin + rng.Float64()*(AsteroidSpinMax-AsteroidSpinMin)
		if rng.Float64() < 0.5 {
			a.Spin = -a.Spin
		}
		a.Rotation = rng.Float64() * math.Pi * 2
		out = append(out, a)
	}
	return out
}

// Update spins the asteroid
func (a *Asteroid) Update(dt float64) {
	a.Rotation = NormalizeAngle(a.Rotation + a.Spin*dt)
}

// PushOut moves pos outside the asteroid if a circle of radius r overlaps it
func (a *Asteroid) PushOut(pos Vec3, r float64) (Vec3, bool) {
	d := pos.Sub(a.Pos)
	d.Y = 0
	l := d.Len()
	min := a.Radius + r
	if l >= min {
		return pos, false
	}
	if l == 0 {
		d = Vec3{X: 1}
		l = 1
	}
	return a.Pos.Add(d.Scale(min / l)).Add(Vec3{Y: pos.Y - a.Pos.Y}), true
}

// ToState converts to protocol state
func (a *Asteroid) ToState() AsteroidState {
	return AsteroidState{
		ID: a.ID,
		X:  round2(a.Pos.X),
		Z:  round2(a.Pos.Z),
		R:  round2(a.Rotation),
		S:  round2(a.Radius),
	}
}
