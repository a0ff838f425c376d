// Package gain implements the per-track gain controller: a smoothly
// adjusted amplification factor updated once per emitted sample under
// asymmetric ramp constraints (fast-ish multiplicative rise, bounded
// additive fall).
package gain

import "math"

// Controller holds the gain state for one track (a single channel, or all
// channels pooled, depending on the normalizer's per-channel setting).
type Controller struct {
	gain            float64
	maxGain         float64
	maxGainIncrease float64 // r = 1 + 1/windowSize
	windowSize      int
	floor1          bool
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithFloor1 clamps the gain to never fall below 1.0, avoiding a quirk of
// the unclamped controller where brief sample-aligned spikes can drive the
// gain below 1.0.
func WithFloor1() Option {
	return func(c *Controller) { c.floor1 = true }
}

// New constructs a gain controller for a track whose rolling maximum spans
// windowSize samples, capped at maxGain.
func New(windowSize int, maxGain float64, opts ...Option) *Controller {
	c := &Controller{
		gain:            1.0,
		maxGain:         maxGain,
		maxGainIncrease: 1.0 + 1.0/float64(windowSize),
		windowSize:      windowSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gain returns the current gain level.
func (c *Controller) Gain() float64 {
	return c.gain
}

// Update recomputes the gain from the track's current rolling maximum
// amplitude and the format's full-scale amplitude.
//
// Known quirk (preserved by default, see WithFloor1): because target can
// fall below 1.0 for brief sample-aligned spikes, the additive decay branch
// can drive the gain temporarily below 1.0.
func (c *Controller) Update(rollingMax, fullScale int) {
	var clipGain float64
	if rollingMax == 0 {
		clipGain = c.maxGain
	} else {
		clipGain = float64(fullScale) / float64(rollingMax)
	}
	target := math.Min(c.maxGain, clipGain)

	if target > c.gain {
		c.gain = math.Min(c.gain*c.maxGainIncrease, target)
	} else {
		c.gain = math.Max(c.gain-(c.maxGain-target)/float64(c.windowSize), target)
	}

	if c.floor1 && c.gain < 1.0 {
		c.gain = 1.0
	}
}
