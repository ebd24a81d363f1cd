// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.Backend != DefaultBackend {
		t.Errorf("backend = %q, want %q", cfg.Audio.Backend, DefaultBackend)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %f, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoad_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeTempConfig(t, `
debug: true
audio:
  backend: oto
  sample_rate: 48000
  channels: 1
  frames_per_buffer: 256
record:
  enabled: true
  output_file: out.wav
spectrum:
  enabled: true
  port: "9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Audio.Backend != "oto" {
		t.Errorf("backend = %q, want oto", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample rate = %f, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("channels = %d, want 1", cfg.Audio.Channels)
	}
	if !cfg.Record.Enabled || cfg.Record.OutputFile != "out.wav" {
		t.Errorf("record = %+v, want enabled with out.wav", cfg.Record)
	}
	if !cfg.Spectrum.Enabled || cfg.Spectrum.Port != "9090" {
		t.Errorf("spectrum = %+v, want enabled on 9090", cfg.Spectrum)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIXDOWN_DEBUG", "true")
	t.Setenv("MIXDOWN_BACKEND", "oto")
	t.Setenv("MIXDOWN_SAMPLE_RATE", "22050")
	t.Setenv("MIXDOWN_SPECTRUM_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("MIXDOWN_DEBUG should enable debug")
	}
	if cfg.Audio.Backend != "oto" {
		t.Errorf("backend = %q, want oto", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("sample rate = %f, want 22050", cfg.Audio.SampleRate)
	}
	if cfg.Spectrum.Port != "7070" {
		t.Errorf("spectrum port = %q, want 7070", cfg.Spectrum.Port)
	}
}

func TestLoad_EnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("MIXDOWN_DEBUG", "not-a-bool")
	t.Setenv("MIXDOWN_SAMPLE_RATE", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Debug {
		t.Error("unparseable MIXDOWN_DEBUG should be ignored")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %f, want default %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
}

func TestValidate_HardErrors(t *testing.T) {
	tests := []struct {
		desc   string
		mutate func(*Config)
	}{
		{"Unknown backend", func(c *Config) { c.Audio.Backend = "jack" }},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"Sample rate too high", func(c *Config) { c.Audio.SampleRate = 400000 }},
		{"Zero frames per buffer", func(c *Config) { c.Audio.FramesPerBuffer = 0 }},
		{"Oversized buffer", func(c *Config) { c.Audio.FramesPerBuffer = MaxBufferFrames * 2 }},
		{"Unsupported channel count", func(c *Config) { c.Audio.Channels = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_ClampsSoftValues(t *testing.T) {
	cfg := New()
	cfg.Audio.MasterVolume = 1.5
	cfg.Audio.StreamSegments = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Audio.MasterVolume != 1.0 {
		t.Errorf("master volume = %f, want clamp to 1.0", cfg.Audio.MasterVolume)
	}
	if cfg.Audio.StreamSegments != 2 {
		t.Errorf("stream segments = %d, want clamp to 2", cfg.Audio.StreamSegments)
	}

	cfg.Audio.MasterVolume = -0.5
	cfg.Audio.StreamSegments = 99
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Audio.MasterVolume != 0 {
		t.Errorf("master volume = %f, want clamp to 0", cfg.Audio.MasterVolume)
	}
	if cfg.Audio.StreamSegments != MaxStreamSegments {
		t.Errorf("stream segments = %d, want clamp to %d", cfg.Audio.StreamSegments, MaxStreamSegments)
	}
}
