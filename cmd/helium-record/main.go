// Command helium-record reads raw interleaved PCM from standard input (or a
// file named as an argument, standing in for a live capture device), runs
// it through the normalizer pipeline, and writes the result to a WAV or MP3
// file chosen by the naming scheme in config.json.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/meinders/helium/internal/config"
	"github.com/meinders/helium/internal/encoder"
	"github.com/meinders/helium/internal/normalize"
	"github.com/meinders/helium/internal/wavstream"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the configuration file")
	inputPath := flag.String("input", "-", "raw PCM input file, or - for standard input")
	flag.Parse()

	if err := run(*configPath, *inputPath); err != nil {
		log.Fatalf("helium-record: %v", err)
	}
}

func run(configPath, inputPath string) error {
	watcher, err := config.WatchFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer watcher.Close()
	cfg := watcher.Current()

	in, err := openInput(inputPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	scheme, err := cfg.NamingScheme()
	if err != nil {
		return fmt.Errorf("naming scheme: %w", err)
	}

	sink, outPath, err := openSink(cfg, scheme)
	if err != nil {
		return err
	}
	defer sink.Close()

	log.Printf("recording to %s", outPath)

	var out io.Writer = sink
	var normalizer *normalize.Normalizer

	if cfg.Normalize != nil {
		pcmFormat, err := cfg.AudioFormat.PCMFormat()
		if err != nil {
			return fmt.Errorf("audio format: %w", err)
		}

		normalizer, err = normalize.New(sink, normalize.Config{
			Format:          pcmFormat,
			Channels:        cfg.AudioFormat.Channels,
			SampleRate:      cfg.AudioFormat.SampleRate,
			WindowSeconds:   cfg.Normalize.WindowSize,
			MaxGain:         cfg.Normalize.MaximumGain,
			PerChannel:      cfg.Normalize.PerChannel,
			DCOffsetEnabled: cfg.Normalize.DCOffset,
		})
		if err != nil {
			return fmt.Errorf("starting normalizer: %w", err)
		}
		out = normalizer

		watcher.OnChange(func(reloaded config.Config) {
			if reloaded.Normalize != nil {
				normalizer.SetDCOffsetEnabled(reloaded.Normalize.DCOffset)
			}
		})
	}

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying input: %w", err)
	}

	if normalizer != nil {
		if err := normalizer.Close(); err != nil {
			return fmt.Errorf("closing normalizer: %w", err)
		}
	}

	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// sink wraps the file being written along with the format-specific writer
// stacked on top of it, so Close tears both down in order. When normalization
// is active, the normalizer's own Close already closes the sink as its
// downstream io.Closer; closeOnce keeps the caller's deferred Close a no-op
// in that case instead of closing the file twice.
type sink struct {
	writer    io.Writer
	closer    func() error
	closeOnce sync.Once
	closeErr  error
}

func (s *sink) Write(p []byte) (int, error) { return s.writer.Write(p) }

func (s *sink) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.closer() })
	return s.closeErr
}

func openSink(cfg config.Config, scheme config.NamingScheme) (*sink, string, error) {
	ext := ".wav"
	if cfg.Encode != nil && cfg.Encode.Format == config.EncodeMP3 {
		ext = ".mp3"
	}

	name := scheme.FileName(cfg.Store.Folder) + ext
	path := filepath.Join(cfg.Store.Folder, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", path, err)
	}

	if cfg.Encode != nil && cfg.Encode.Format == config.EncodeMP3 {
		enc, err := encoder.New(file, cfg.Encode.EncoderOptions())
		if err != nil {
			file.Close()
			return nil, "", fmt.Errorf("starting encoder: %w", err)
		}
		return &sink{
			writer: enc,
			closer: func() error {
				encErr := enc.Close()
				fileErr := file.Close()
				if encErr != nil {
					return encErr
				}
				return fileErr
			},
		}, path, nil
	}

	wav := wavstream.New(file, wavstream.Format{
		Channels:      cfg.AudioFormat.Channels,
		SampleRate:    cfg.AudioFormat.SampleRate,
		BitsPerSample: cfg.AudioFormat.BitsPerSample,
	})
	return &sink{
		writer: wav,
		closer: func() error {
			wavErr := wav.Close()
			return wavErr
		},
	}, path, nil
}
