// Package wavstream writes a streaming-friendly RIFF/WAVE header: since the
// total length isn't known until the stream ends, the RIFF and data chunk
// sizes are written as the format's "unknown length" sentinel values rather
// than a true size patched in after the fact.
package wavstream

import (
	"encoding/binary"
	"io"
)

// unknown-length sentinels: streaming precludes knowing the total size at
// header-write time.
const (
	riffUnknownSize = 0x80000024
	dataUnknownSize = 0x80000000
)

// Format describes the audio parameters recorded in the header.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// Writer wraps an io.Writer, writing a WAV header before the first byte of
// audio data and then passing subsequent writes through unmodified.
type Writer struct {
	out           io.Writer
	format        Format
	headerWritten bool
}

// New constructs a Writer for the given format.
func New(out io.Writer, format Format) *Writer {
	return &Writer{out: out, format: format}
}

// Write writes p to the underlying stream, first emitting the WAV header
// if this is the first call.
func (w *Writer) Write(p []byte) (int, error) {
	if !w.headerWritten {
		if err := w.writeHeader(); err != nil {
			return 0, err
		}
	}
	return w.out.Write(p)
}

// Close writes the header if no data was ever written, then closes the
// underlying stream if it supports it.
func (w *Writer) Close() error {
	if !w.headerWritten {
		if err := w.writeHeader(); err != nil {
			return err
		}
	}
	if closer, ok := w.out.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (w *Writer) writeHeader() error {
	channels := w.format.Channels
	sampleRate := w.format.SampleRate
	bitsPerSample := w.format.BitsPerSample
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffUnknownSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataUnknownSize)

	if _, err := w.out.Write(header[:]); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}
