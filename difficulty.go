package main

import "math"

// DifficultyCurve maps a wave number to its size, pacing and stat multiplier
type DifficultyCurve struct {
	BaseEnemyCount int
	EnemyScaling   float64 // growth factor per wave
	MultiplierStep float64 // added to the multiplier per wave
	BaseInterval   float64 // seconds between spawns on wave 1
	IntervalStep   float64 // reduction per wave
	MinInterval    float64
}

// NewDifficultyCurve builds a curve from the waves config section
func NewDifficultyCurve(cfg WaveConfig) DifficultyCurve {
	return DifficultyCurve{
		BaseEnemyCount: cfg.BaseEnemyCount,
		EnemyScaling:   cfg.EnemyScalingPerWave,
		MultiplierStep: cfg.DifficultyScaling,
		BaseInterval:   cfg.BaseSpawnInterval,
		IntervalStep:   cfg.SpawnIntervalReduction,
		MinInterval:    cfg.MinSpawnInterval,
	}
}

func clampWave(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// EnemyCount is round(base * scaling^(n-1)), capped at math.MaxInt32
func (d DifficultyCurve) EnemyCount(n int) int {
	n = clampWave(n)
	v := math.Round(float64(d.BaseEnemyCount) * math.Pow(d.EnemyScaling, float64(n-1)))
	if v > math.MaxInt32 || math.IsNaN(v) {
		return math.MaxInt32
	}
	return int(v)
}

// Multiplier is 1 + (n-1) * step
func (d DifficultyCurve) Multiplier(n int) float64 {
	n = clampWave(n)
	return 1 + float64(n-1)*d.MultiplierStep
}

// SpawnInterval is base - (n-1) * step, never below the floor
func (d DifficultyCurve) SpawnInterval(n int) float64 {
	n = clampWave(n)
	return math.Max(d.BaseInterval-float64(n-1)*d.IntervalStep, d.MinInterval)
}

// NextInterval lowers an interval by one step down to the floor
func (d DifficultyCurve) NextInterval(cur float64) float64 {
	return math.Max(cur-d.IntervalStep, d.MinInterval)
}
