package pcm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/meinders/helium/internal/herr"
)

func TestNewUnsupportedFormat(t *testing.T) {
	_, err := New(Format(99))
	var cfgErr *herr.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("New(99): got %v, want *herr.ConfigError", err)
	}
}

func TestPCM8RoundTrip(t *testing.T) {
	codec, err := New(PCM8)
	if err != nil {
		t.Fatalf("New(PCM8): %v", err)
	}
	for _, sample := range []int{0, 1, -1, 127, -128} {
		complete := codec.Update(byte(int8(sample)))
		if !complete {
			t.Fatalf("Update: PCM8 should always complete on one byte")
		}
		if got := codec.Sample(); got != sample {
			t.Errorf("Sample: got %d, want %d", got, sample)
		}
	}
}

func TestPCM8WriteAndClamp(t *testing.T) {
	codec, _ := New(PCM8)
	var buf bytes.Buffer
	if err := codec.Write(&buf, 5); err != nil {
		t.Fatalf("Write(5): %v", err)
	}
	if buf.Bytes()[0] != 5 {
		t.Errorf("written byte: got %d, want 5", buf.Bytes()[0])
	}

	if err := codec.Write(&buf, 200); err == nil {
		t.Errorf("Write(200): want CodecError, got nil")
	}

	if got := codec.Clamp(200); got != 0x7f {
		t.Errorf("Clamp(200): got %d, want 127", got)
	}
	if got := codec.Clamp(-200); got != -0x80 {
		t.Errorf("Clamp(-200): got %d, want -128", got)
	}
}

func TestPCM16LERoundTrip(t *testing.T) {
	codec, err := New(PCM16LE)
	if err != nil {
		t.Fatalf("New(PCM16LE): %v", err)
	}

	samples := []int{0, 1, -1, 32767, -32768, 256}
	for _, sample := range samples {
		var buf bytes.Buffer
		if err := codec.Write(&buf, sample); err != nil {
			t.Fatalf("Write(%d): %v", sample, err)
		}

		bs := buf.Bytes()
		if complete := codec.Update(bs[0]); complete {
			t.Fatalf("Update(first byte): sample completed early")
		}
		if complete := codec.Update(bs[1]); !complete {
			t.Fatalf("Update(second byte): sample did not complete")
		}
		if got := codec.Sample(); got != sample {
			t.Errorf("round-trip %d: got %d", sample, got)
		}
	}
}

func TestPCM16BERoundTrip(t *testing.T) {
	codec, err := New(PCM16BE)
	if err != nil {
		t.Fatalf("New(PCM16BE): %v", err)
	}

	samples := []int{0, 1, -1, 32767, -32768, 256}
	for _, sample := range samples {
		var buf bytes.Buffer
		if err := codec.Write(&buf, sample); err != nil {
			t.Fatalf("Write(%d): %v", sample, err)
		}

		bs := buf.Bytes()
		codec.Update(bs[0])
		if complete := codec.Update(bs[1]); !complete {
			t.Fatalf("Update(second byte): sample did not complete")
		}
		if got := codec.Sample(); got != sample {
			t.Errorf("round-trip %d: got %d", sample, got)
		}
	}
}

func TestPCM16LEByteOrder(t *testing.T) {
	codec, _ := New(PCM16LE)
	var buf bytes.Buffer
	// 0x0102 little-endian: low byte 0x02 first, high byte 0x01 second.
	codec.Write(&buf, 0x0102)
	want := []byte{0x02, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("PCM16LE encoding of 0x0102: got % x, want % x", buf.Bytes(), want)
	}
}

func TestPCM16BEByteOrder(t *testing.T) {
	codec, _ := New(PCM16BE)
	var buf bytes.Buffer
	codec.Write(&buf, 0x0102)
	want := []byte{0x01, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("PCM16BE encoding of 0x0102: got % x, want % x", buf.Bytes(), want)
	}
}

func TestMaxAmplitudeAndBytesPerSample(t *testing.T) {
	pcm8, _ := New(PCM8)
	if pcm8.MaxAmplitude() != 0x7f || pcm8.BytesPerSample() != 1 {
		t.Errorf("PCM8: MaxAmplitude=%d BytesPerSample=%d", pcm8.MaxAmplitude(), pcm8.BytesPerSample())
	}
	pcm16, _ := New(PCM16LE)
	if pcm16.MaxAmplitude() != 0x7fff || pcm16.BytesPerSample() != 2 {
		t.Errorf("PCM16LE: MaxAmplitude=%d BytesPerSample=%d", pcm16.MaxAmplitude(), pcm16.BytesPerSample())
	}
}

func TestFormatString(t *testing.T) {
	cases := map[Format]string{
		PCM8:       "PCM8",
		PCM16LE:    "PCM16LE",
		PCM16BE:    "PCM16BE",
		Format(99): "unknown",
	}
	for format, want := range cases {
		if got := format.String(); got != want {
			t.Errorf("%v.String(): got %q, want %q", format, got, want)
		}
	}
}
