// Package dcoffset implements the per-channel DC-offset estimator: a
// single-pole low-pass filter approximating the constant bias of a signal,
// with a time constant of about one second regardless of sample rate.
package dcoffset

import "math"

// Estimator tracks the running DC bias of one channel.
type Estimator struct {
	alpha float64
	value float64
}

// New constructs an estimator for a channel sampled at sampleRate Hz.
func New(sampleRate int) *Estimator {
	return &Estimator{alpha: 1.0 / float64(sampleRate)}
}

// Update folds sample into the running estimate.
func (e *Estimator) Update(sample int) {
	e.value = e.value*(1.0-e.alpha) + float64(sample)*e.alpha
}

// Offset returns the current estimate, unrounded.
func (e *Estimator) Offset() float64 {
	return e.value
}

// RoundedOffset returns the current estimate rounded to the nearest
// integer, the bias subtracted from incoming samples.
func (e *Estimator) RoundedOffset() int {
	return int(math.Round(e.value))
}
