package main

import "math"

const (
	SpawnModeCircle  = "circle"
	SpawnModeScatter = "scatter"

	DefaultScatterAttempts = 8
)

// SpawnSampler picks a spawn point on the arena floor
type SpawnSampler interface {
	Sample(rng RandSource) Vec3
}

// CircleSampler places points uniformly on a circle around Center
type CircleSampler struct {
	Center Vec3
	Radius float64
}

// Sample returns a point on the circle. Y is taken from Center.
func (s CircleSampler) Sample(rng RandSource) Vec3 {
	angle := rng.Float64() * 2 * math.Pi
	return Vec3{
		X: s.Center.X + math.Cos(angle)*s.Radius,
		Y: s.Center.Y,
		Z: s.Center.Z + math.Sin(angle)*s.Radius,
	}
}

// ScatterSampler places points uniformly inside the annulus
// [MinRadius, MaxRadius] around Center, rejecting points closer than
// ExcludeRadius to Exclude.
type ScatterSampler struct {
	Center        Vec3
	MinRadius     float64
	MaxRadius     float64
	Exclude       Vec3
	ExcludeRadius float64
	MaxAttempts   int // 0 = DefaultScatterAttempts
}

// Sample tries up to MaxAttempts points. If all are rejected the last
// angle is used at MaxRadius.
func (s ScatterSampler) Sample(rng RandSource) Vec3 {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultScatterAttempts
	}
	r2min := s.MinRadius * s.MinRadius
	r2max := s.MaxRadius * s.MaxRadius
	exclSq := s.ExcludeRadius * s.ExcludeRadius

	var angle float64
	for i := 0; i < attempts; i++ {
		angle = rng.Float64() * 2 * math.Pi
		// sqrt of a uniform r^2 keeps the density uniform over the area
		r := math.Sqrt(r2min + rng.Float64()*(r2max-r2min))
		p := s.at(angle, r)
		if s.ExcludeRadius <= 0 || FlatDistanceSq(p, s.Exclude) >= exclSq {
			return p
		}
	}
	return s.at(angle, s.MaxRadius)
}

func (s ScatterSampler) at(angle, r float64) Vec3 {
	return Vec3{
		X: s.Center.X + math.Cos(angle)*r,
		Y: s.Center.Y,
		Z: s.Center.Z + math.Sin(angle)*r,
	}
}

// NewSpawnSampler builds the sampler selected by waves.spawn_mode
func NewSpawnSampler(cfg *GameConfig, center Vec3) SpawnSampler {
	if cfg.Waves.SpawnMode == SpawnModeScatter {
		return ScatterSampler{
			Center:        center,
			MinRadius:     cfg.Enemies.SpawnDistanceMin,
			MaxRadius:     cfg.Enemies.SpawnDistanceMax,
			Exclude:       center,
			ExcludeRadius: cfg.Enemies.SpawnDistanceMin,
		}
	}
	return CircleSampler{Center: center, Radius: cfg.Arena.SpawnRadius}
}
