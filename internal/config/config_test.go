package config

import (
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AudioFormat.SampleRate != 44100 {
		t.Errorf("default SampleRate: got %d, want 44100", cfg.AudioFormat.SampleRate)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after default write: %v", err)
	}
	if reloaded.AudioFormat.Channels != cfg.AudioFormat.Channels {
		t.Errorf("reloaded Channels: got %d, want %d", reloaded.AudioFormat.Channels, cfg.AudioFormat.Channels)
	}
}

func TestSaveAndLoadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Normalize = &NormalizeSettings{MaximumGain: 12.5, WindowSize: 3.0, DCOffset: true}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Normalize == nil || got.Normalize.MaximumGain != 12.5 {
		t.Errorf("Normalize: got %+v, want MaximumGain 12.5", got.Normalize)
	}
}

func TestSaveAndLoadTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Store.NamingFormat = `"take" sequence`
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Store.NamingFormat != `"take" sequence` {
		t.Errorf("Store.NamingFormat: got %q, want %q", got.Store.NamingFormat, `"take" sequence`)
	}
}

func TestAudioFormatPCMFormatMapping(t *testing.T) {
	cases := []struct {
		format    AudioFormat
		wantError bool
	}{
		{AudioFormat{BitsPerSample: 8}, false},
		{AudioFormat{BitsPerSample: 16, BigEndian: false}, false},
		{AudioFormat{BitsPerSample: 16, BigEndian: true}, false},
		{AudioFormat{BitsPerSample: 24}, true},
	}
	for _, c := range cases {
		_, err := c.format.PCMFormat()
		if (err != nil) != c.wantError {
			t.Errorf("PCMFormat(%+v): error = %v, wantError %v", c.format, err, c.wantError)
		}
	}
}

func TestNamingSchemeFromConfig(t *testing.T) {
	cfg := Default()
	scheme, err := cfg.NamingScheme()
	if err != nil {
		t.Fatalf("NamingScheme: %v", err)
	}
	if len(scheme.Elements) == 0 {
		t.Errorf("NamingScheme from default config has no elements")
	}
}
