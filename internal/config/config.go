// Package config loads and hot-reloads application configuration: audio
// format, normalization parameters, output encoding, and file naming.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/meinders/helium/internal/encoder"
	"github.com/meinders/helium/internal/normalize"
)

// AudioFormat describes the raw capture format.
type AudioFormat struct {
	SampleRate    int  `json:"sample_rate" toml:"sample_rate"`
	BitsPerSample int  `json:"bits_per_sample" toml:"bits_per_sample"`
	Channels      int  `json:"channels" toml:"channels"`
	BigEndian     bool `json:"big_endian" toml:"big_endian"`
}

// PCMFormat converts a to the internal codec format tag.
func (a AudioFormat) PCMFormat() (normalize.Format, error) {
	switch a.BitsPerSample {
	case 8:
		return normalize.PCM8, nil
	case 16:
		if a.BigEndian {
			return normalize.PCM16BE, nil
		}
		return normalize.PCM16LE, nil
	default:
		return 0, fmt.Errorf("config: unsupported bits_per_sample %d", a.BitsPerSample)
	}
}

// NormalizeSettings holds normalizer tuning; nil in Config means
// normalization is disabled.
type NormalizeSettings struct {
	PerChannel bool    `json:"per_channel" toml:"per_channel"`
	MaximumGain float64 `json:"maximum_gain" toml:"maximum_gain"`
	WindowSize  float64 `json:"window_size" toml:"window_size"`
	DCOffset    bool    `json:"dc_offset" toml:"dc_offset"`
}

// EncodeFormat names the storage encoding.
type EncodeFormat string

const (
	EncodeWave EncodeFormat = "wave"
	EncodeMP3  EncodeFormat = "mp3"
)

// EncodeSettings configures storage encoding, MP3-specific fields ignored
// unless Format is EncodeMP3.
type EncodeSettings struct {
	Format EncodeFormat `json:"format" toml:"format"`

	LameExecutable string `json:"lame_executable,omitempty" toml:"lame_executable,omitempty"`
	Mode           string `json:"mode,omitempty" toml:"mode,omitempty"`

	BitRateConstant *int `json:"bit_rate_constant,omitempty" toml:"bit_rate_constant,omitempty"`
	BitRateAverage  *int `json:"bit_rate_average,omitempty" toml:"bit_rate_average,omitempty"`
	BitRateVariable *int `json:"bit_rate_variable,omitempty" toml:"bit_rate_variable,omitempty"`
}

// EncoderOptions converts e's MP3 fields to encoder.Options.
func (e EncodeSettings) EncoderOptions() encoder.Options {
	opts := encoder.Options{Executable: e.LameExecutable}
	switch e.Mode {
	case "stereo":
		opts.Mode = encoder.ChannelModeStereo
	case "joint-stereo":
		opts.Mode = encoder.ChannelModeJointStereo
	case "mono":
		opts.Mode = encoder.ChannelModeMono
	}
	opts.BitRate = encoder.BitRate{
		Constant: e.BitRateConstant,
		Average:  e.BitRateAverage,
		Variable: e.BitRateVariable,
	}
	return opts
}

// StoreSettings configures where and how recordings are named on disk.
type StoreSettings struct {
	Folder       string `json:"folder" toml:"folder"`
	NamingFormat string `json:"naming_format" toml:"naming_format"`
	Separator    string `json:"separator" toml:"separator"`
}

// Config is the top-level application configuration.
type Config struct {
	MixerName   string             `json:"mixer,omitempty" toml:"mixer,omitempty"`
	AudioFormat AudioFormat        `json:"audio_format" toml:"audio_format"`
	Normalize   *NormalizeSettings `json:"normalize,omitempty" toml:"normalize,omitempty"`
	Encode      *EncodeSettings    `json:"encode,omitempty" toml:"encode,omitempty"`
	Store       StoreSettings      `json:"store" toml:"store"`
}

// Default returns the configuration used when no config file exists yet.
func Default() Config {
	return Config{
		AudioFormat: AudioFormat{SampleRate: 44100, BitsPerSample: 16, Channels: 2},
		Store: StoreSettings{
			Folder:       ".",
			NamingFormat: `"recording" date(20060102) sequence`,
			Separator:    "-",
		},
	}
}

// NamingScheme builds the NamingScheme described by c.Store.
func (c Config) NamingScheme() (NamingScheme, error) {
	scheme := NamingScheme{Separator: c.Store.Separator}
	if scheme.Separator == "" {
		scheme.Separator = "-"
	}
	if err := scheme.SetFormat(c.Store.NamingFormat); err != nil {
		return NamingScheme{}, err
	}
	return scheme, nil
}

// Load reads configuration from path, selecting JSON or TOML by extension
// (.toml uses TOML, anything else uses JSON). If path does not exist, the
// default configuration is written there and returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if writeErr := Save(path, cfg); writeErr != nil {
			return cfg, writeErr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if isTOML(path) {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s as TOML: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s as JSON: %w", path, err)
		}
	}
	return cfg, nil
}

// Save writes cfg to path in the format its extension selects.
func Save(path string, cfg Config) error {
	var data []byte
	var err error
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("config: encoding TOML: %w", err)
		}
		data = buf.Bytes()
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("config: encoding JSON: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

func isTOML(path string) bool {
	return filepath.Ext(path) == ".toml"
}

// Watcher watches a config file for changes and reloads it, notifying
// registered listeners from its own watcher goroutine -- callers that
// need thread safety (e.g. toggling a normalizer's live DCOffsetEnabled
// flag) should use their own atomic state, as the audio-writing path does.
type Watcher struct {
	path string

	mu        sync.RWMutex
	current   Config
	listeners []func(Config)

	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// WatchFile starts watching path for changes, invoking Load on every
// filesystem write event.
func WatchFile(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		current: cfg,
		watcher: fw,
		stop:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Clean(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.current = cfg
			listeners := append([]func(Config){}, w.listeners...)
			w.mu.Unlock()
			for _, l := range listeners {
				l(cfg)
			}
		case <-w.watcher.Errors:
		case <-w.stop:
			return
		}
	}
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers f to be called, from the watcher goroutine, whenever
// the configuration file is reloaded.
func (w *Watcher) OnChange(f func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, f)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}

