// Package normalize implements the streaming audio normalizer pipeline:
// per-channel DC-offset removal followed by a look-ahead peak normalizer
// built from a rolling window, a rolling maximum, and a gain controller.
package normalize

import (
	"errors"
	"io"
	"math"
	"sync/atomic"

	"github.com/meinders/helium/internal/dcoffset"
	"github.com/meinders/helium/internal/gain"
	"github.com/meinders/helium/internal/herr"
	"github.com/meinders/helium/internal/pcm"
	"github.com/meinders/helium/internal/rollmax"
	"github.com/meinders/helium/internal/window"
)

// Config carries the construction parameters of a Normalizer.
type Config struct {
	Format Format

	// Channels is C, the interleaved channel count. Must be ≥ 1.
	Channels int

	// SampleRate is R, samples per second per channel. Must be > 0.
	SampleRate int

	// WindowSeconds is W, the look-ahead window duration. Must be > 0.
	WindowSeconds float64

	// MaxGain is G_max, the maximum amplification factor. Must be ≥ 1.0.
	MaxGain float64

	// PerChannel selects whether each channel gets an independent gain
	// track, or all channels share one.
	PerChannel bool

	// DCOffsetEnabled controls whether DC bias is removed. Mutable at
	// runtime via SetDCOffsetEnabled.
	DCOffsetEnabled bool

	// EventBuffer sizes the monitor's event queue; 0 selects a default.
	EventBuffer int

	// GainFloor1 opts into clamping gain to never fall below 1.0; see
	// gain.WithFloor1.
	GainFloor1 bool
}

// Format re-exports pcm.Format so callers need not import internal/pcm
// directly.
type Format = pcm.Format

const (
	PCM8    = pcm.PCM8
	PCM16LE = pcm.PCM16LE
	PCM16BE = pcm.PCM16BE
)

func (c Config) validate() error {
	if c.Channels < 1 {
		return herr.NewConfigError("channels", "must be at least 1")
	}
	if c.SampleRate <= 0 {
		return herr.NewConfigError("sample_rate", "must be positive")
	}
	if c.WindowSeconds <= 0 {
		return herr.NewConfigError("window_seconds", "must be positive")
	}
	if c.MaxGain < 1.0 {
		return herr.NewConfigError("max_gain", "must be at least 1.0")
	}
	return nil
}

// Normalizer performs on-the-fly peak normalization and DC-offset removal
// on interleaved PCM samples written to it, writing normalized samples of
// the same format to an underlying sink.
type Normalizer struct {
	codec    pcm.Codec
	channels int

	win  *window.Window
	maxs []*rollmax.Max[int]
	gain []*gain.Controller
	dc   []*dcoffset.Estimator

	dcEnabled atomic.Bool

	gainTrack  int
	srcChannel int
	round      int

	samplesPerUpdate int
	saturations      atomic.Uint64

	out     io.Writer
	monitor *monitor
}

// New constructs a Normalizer writing to out. It returns a ConfigError if
// cfg describes an unsupported format or non-positive parameter.
func New(out io.Writer, cfg Config) (*Normalizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec, err := pcm.New(cfg.Format)
	if err != nil {
		return nil, err
	}

	totalSamples := int(float64(cfg.SampleRate) * float64(cfg.Channels) * cfg.WindowSeconds)
	if totalSamples < 1 {
		return nil, herr.NewConfigError("window_seconds", "window too short for the given sample rate and channel count")
	}

	tracks := 1
	perTrackSamples := totalSamples
	if cfg.PerChannel {
		tracks = cfg.Channels
		perTrackSamples = totalSamples / cfg.Channels
		if perTrackSamples < 1 {
			return nil, herr.NewConfigError("window_seconds", "per-channel window too short for the given sample rate")
		}
	}

	var gainOpts []gain.Option
	if cfg.GainFloor1 {
		gainOpts = append(gainOpts, gain.WithFloor1())
	}

	n := &Normalizer{
		codec:            codec,
		channels:         cfg.Channels,
		win:              window.New(totalSamples),
		maxs:             make([]*rollmax.Max[int], tracks),
		gain:             make([]*gain.Controller, tracks),
		dc:               make([]*dcoffset.Estimator, cfg.Channels),
		samplesPerUpdate: max(1, cfg.SampleRate/30),
		out:              out,
		monitor:          newMonitor(cfg.EventBuffer),
	}
	for i := range n.maxs {
		n.maxs[i] = rollmax.New[int](perTrackSamples)
		n.gain[i] = gain.New(perTrackSamples, cfg.MaxGain, gainOpts...)
	}
	for i := range n.dc {
		n.dc[i] = dcoffset.New(cfg.SampleRate)
	}
	n.dcEnabled.Store(cfg.DCOffsetEnabled)

	return n, nil
}

// Write feeds raw bytes of interleaved PCM samples into the normalizer.
// Partial samples across calls are buffered by the codec.
func (n *Normalizer) Write(p []byte) (int, error) {
	for i, b := range p {
		if n.codec.Update(b) {
			if err := n.processSample(n.codec.Sample()); err != nil {
				return i + 1, err
			}
		}
	}
	return len(p), nil
}

// processSample runs one incoming sample through the normalization
// pipeline.
func (n *Normalizer) processSample(sample int) error {
	track := n.gainTrack

	// Gain is updated from the rolling maximum as it stood before this
	// sample enters the window: the gain used to emit the sample now
	// leaving the window has already seen one window of look-ahead.
	n.gain[track].Update(n.maxs[track].Get(), n.codec.MaxAmplitude())

	dc := n.dc[n.srcChannel]
	dc.Update(sample)
	adjusted := sample
	if n.dcEnabled.Load() {
		adjusted = sample - dc.RoundedOffset()
	}

	wasFull := n.win.IsFull()
	ejected := n.win.Add(adjusted)

	var ioErr error
	if wasFull {
		ioErr = n.emit(track, ejected)
	}

	n.fireEvents(adjusted, track)

	n.maxs[track].Remove(absInt(ejected))
	if err := n.maxs[track].Add(absInt(adjusted)); err != nil {
		return err
	}

	n.advanceCursors()

	return ioErr
}

// emit applies the track's current gain to a sample leaving the window,
// clamps it, and writes it downstream.
func (n *Normalizer) emit(track, sample int) error {
	y := int(math.Round(float64(sample) * n.gain[track].Gain()))
	clamped := n.codec.Clamp(y)
	if y != clamped {
		n.saturations.Add(1)
	}
	if err := n.codec.Write(n.out, clamped); err != nil {
		return herr.NewIOError("write", err)
	}
	return nil
}

// fireEvents dispatches amplitude/gain updates at a subsampled rate,
// measured on the incoming (DC-adjusted, pre-gain) sample and reported
// against the source-channel cursor.
func (n *Normalizer) fireEvents(adjusted, track int) {
	if n.round%n.samplesPerUpdate != 0 {
		return
	}
	amplitude := math.Abs(float64(adjusted)) / float64(n.codec.MaxAmplitude())
	n.monitor.dispatchAmplitude(n.srcChannel, amplitude)
	n.monitor.dispatchGain(n.srcChannel, n.gain[track].Gain())
}

func (n *Normalizer) advanceCursors() {
	n.gainTrack = (n.gainTrack + 1) % len(n.gain)
	n.srcChannel++
	if n.srcChannel == n.channels {
		n.srcChannel = 0
		n.round++
	}
}

// Flush drains the window, emitting each remaining sample with the gain
// track's current gain (not recomputed — there is no more look-ahead to
// recompute it from), then propagates flush downstream.
func (n *Normalizer) Flush() error {
	var firstErr error
	for !n.win.IsEmpty() {
		v := n.win.Remove()
		n.maxs[n.gainTrack].Remove(absInt(v))
		if err := n.emit(n.gainTrack, v); err != nil && firstErr == nil {
			firstErr = err
		}
		n.gainTrack = (n.gainTrack + 1) % len(n.gain)
	}
	if flusher, ok := n.out.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil && firstErr == nil {
			firstErr = herr.NewIOError("flush", err)
		}
	}
	return firstErr
}

// Close flushes the window and propagates close downstream. It drains the
// window even if the downstream sink reports an error; any I/O error is
// returned only after internal state has been fully drained.
func (n *Normalizer) Close() error {
	flushErr := n.Flush()
	n.monitor.stop()

	var closeErr error
	if closer, ok := n.out.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			closeErr = herr.NewIOError("close", err)
		}
	}
	return errors.Join(flushErr, closeErr)
}

// DCOffset returns the current DC-offset estimate for the given source
// channel.
func (n *Normalizer) DCOffset(channel int) float64 {
	return n.dc[channel].Offset()
}

// SetDCOffsetEnabled toggles DC-offset correction at runtime.
func (n *Normalizer) SetDCOffsetEnabled(enabled bool) {
	n.dcEnabled.Store(enabled)
}

// DCOffsetEnabled reports whether DC-offset correction is active.
func (n *Normalizer) DCOffsetEnabled() bool {
	return n.dcEnabled.Load()
}

// Saturations returns the number of emitted samples that required actual
// clamping — steady-state operation should keep this at (or very near)
// zero.
func (n *Normalizer) Saturations() uint64 {
	return n.saturations.Load()
}

// AddAmplitudeListener registers f to receive amplitude events.
func (n *Normalizer) AddAmplitudeListener(f AmplitudeFunc) {
	n.monitor.addAmplitudeListener(f)
}

// AddGainListener registers f to receive gain events.
func (n *Normalizer) AddGainListener(f GainFunc) {
	n.monitor.addGainListener(f)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
