package simulate

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Profile produces synthetic delays for simulated network hops,
// broker processing, and connection establishment.
type Profile interface {
	// Sample returns the next delay
	Sample() time.Duration
}

// Fixed is a Profile that always returns the same delay. Used in tests
// alongside FakeClock for fully deterministic schedules.
type Fixed time.Duration

// Sample returns the fixed delay
func (f Fixed) Sample() time.Duration {
	return time.Duration(f)
}

// Uniform samples delays uniformly from [min, max)
type Uniform struct {
	dist distuv.Uniform
}

// NewUniform creates a uniform latency profile over [min, max)
func NewUniform(min, max time.Duration) *Uniform {
	if max <= min {
		max = min + time.Millisecond
	}
	return &Uniform{
		dist: distuv.Uniform{
			Min: float64(min),
			Max: float64(max),
		},
	}
}

// Sample returns a uniformly distributed delay
func (u *Uniform) Sample() time.Duration {
	return time.Duration(u.dist.Rand())
}

// LogNormal samples delays from a log-normal distribution clamped to
// [min, max]. The heavier right tail approximates real network hops
// better than a uniform draw.
type LogNormal struct {
	dist distuv.LogNormal
	min  time.Duration
	max  time.Duration
}

// NewLogNormal creates a clamped log-normal profile centered on median
func NewLogNormal(median time.Duration, sigma float64, min, max time.Duration) *LogNormal {
	if median <= 0 {
		median = time.Millisecond
	}
	return &LogNormal{
		dist: distuv.LogNormal{
			Mu:    math.Log(float64(median)),
			Sigma: sigma,
		},
		min: min,
		max: max,
	}
}

// Sample returns a log-normally distributed delay clamped to the bounds
func (l *LogNormal) Sample() time.Duration {
	d := time.Duration(l.dist.Rand())
	if d < l.min {
		return l.min
	}
	if d > l.max {
		return l.max
	}
	return d
}
