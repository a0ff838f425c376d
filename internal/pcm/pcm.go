// Package pcm implements the sample format codec: decoding a byte stream
// into signed integer samples and encoding samples back to bytes, for the
// three PCM formats helium supports.
package pcm

import (
	"io"

	"github.com/meinders/helium/internal/herr"
)

// Format identifies one of the supported PCM sample encodings.
type Format int

const (
	PCM8 Format = iota
	PCM16LE
	PCM16BE
)

func (f Format) String() string {
	switch f {
	case PCM8:
		return "PCM8"
	case PCM16LE:
		return "PCM16LE"
	case PCM16BE:
		return "PCM16BE"
	default:
		return "unknown"
	}
}

// Codec turns a byte stream into samples and back. The decoder only counts
// bytes: a stream that is out of step with sample boundaries decodes into
// misaligned samples without any error. Write rejects only samples outside
// the format's range.
type Codec interface {
	// Update pushes one byte of input. It returns true iff a complete
	// sample is now available via Sample.
	Update(b byte) bool

	// Sample returns the most recently completed sample. The result is
	// only meaningful if the last Update call returned true.
	Sample() int

	// Write encodes sample and writes it to w. It rejects samples outside
	// the signed range with a CodecError.
	Write(w io.Writer, sample int) error

	// MaxAmplitude returns M, the maximum positive amplitude of the
	// format.
	MaxAmplitude() int

	// Clamp saturates sample to [-(M+1), M].
	Clamp(sample int) int

	// BytesPerSample returns the format's byte width.
	BytesPerSample() int
}

// New constructs a Codec for the given format, or a ConfigError if the
// format is unsupported.
func New(format Format) (Codec, error) {
	switch format {
	case PCM8:
		return &pcm8{}, nil
	case PCM16LE:
		return &pcm16{bigEndian: false, complete: true}, nil
	case PCM16BE:
		return &pcm16{bigEndian: true, complete: true}, nil
	default:
		return nil, herr.NewConfigError("format", "unsupported sample format")
	}
}

type pcm8 struct {
	buffer int8
}

func (c *pcm8) Update(b byte) bool {
	c.buffer = int8(b)
	return true
}

func (c *pcm8) Sample() int { return int(c.buffer) }

func (c *pcm8) Write(w io.Writer, sample int) error {
	if sample > 0x7f || sample < -0x80 {
		return &herr.CodecError{Sample: sample}
	}
	_, err := w.Write([]byte{byte(sample)})
	return err
}

func (c *pcm8) MaxAmplitude() int { return 0x7f }

func (c *pcm8) Clamp(sample int) int {
	if sample > 0 {
		return min(0x7f, sample)
	}
	return max(-0x80, sample)
}

func (c *pcm8) BytesPerSample() int { return 1 }

// pcm16 implements both PCM16LE and PCM16BE; only byte order differs.
type pcm16 struct {
	bigEndian bool
	buffer    int16
	complete  bool
}

func (c *pcm16) Update(b byte) bool {
	if c.bigEndian {
		c.buffer = (c.buffer << 8) | int16(b)
	} else {
		c.buffer = int16(uint16(c.buffer)>>8) | (int16(b) << 8)
	}
	c.complete = !c.complete
	return c.complete
}

func (c *pcm16) Sample() int { return int(c.buffer) }

func (c *pcm16) Write(w io.Writer, sample int) error {
	if sample > 0x7fff || sample < -0x8000 {
		return &herr.CodecError{Sample: sample}
	}
	s := uint16(int16(sample))
	var buf [2]byte
	if c.bigEndian {
		buf[0] = byte(s >> 8)
		buf[1] = byte(s)
	} else {
		buf[0] = byte(s)
		buf[1] = byte(s >> 8)
	}
	_, err := w.Write(buf[:])
	return err
}

func (c *pcm16) MaxAmplitude() int { return 0x7fff }

func (c *pcm16) Clamp(sample int) int {
	if sample > 0 {
		return min(0x7fff, sample)
	}
	return max(-0x8000, sample)
}

func (c *pcm16) BytesPerSample() int { return 2 }
