// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file specified by path. If path is
// empty, it searches default locations ("mixdown.yaml"). If no file is
// found, built-in defaults are used. After loading, environment variable
// overrides are applied and the final configuration is validated.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		candidates := []string{
			"mixdown.yaml",
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks hard limits and clamps the continuous controls. Invalid
// scalar values are clamped rather than rejected so that a bad config file
// degrades gracefully instead of refusing to start.
func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case "portaudio", "oto":
	default:
		return fmt.Errorf("audio.backend %q is not supported (portaudio|oto)", c.Audio.Backend)
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]",
			c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels %d is not supported (1|2)", c.Audio.Channels)
	}

	// Continuous controls clamp instead of failing.
	if c.Audio.MasterVolume < 0 {
		c.Audio.MasterVolume = 0
	}
	if c.Audio.MasterVolume > 1 {
		c.Audio.MasterVolume = 1
	}
	if c.Audio.StreamSegments < 2 {
		c.Audio.StreamSegments = 2
	}
	if c.Audio.StreamSegments > MaxStreamSegments {
		c.Audio.StreamSegments = MaxStreamSegments
	}

	return nil
}

// applyEnvOverrides applies MIXDOWN_* environment variables on top of the
// loaded configuration.
func (cfg *Config) applyEnvOverrides() {
	// MIXDOWN_DEBUG
	if val, ok := os.LookupEnv("MIXDOWN_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// MIXDOWN_BACKEND
	if val, ok := os.LookupEnv("MIXDOWN_BACKEND"); ok {
		cfg.Audio.Backend = val
	}
	// MIXDOWN_SAMPLE_RATE
	if val, ok := os.LookupEnv("MIXDOWN_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
		}
	}
	// MIXDOWN_SPECTRUM_PORT
	if val, ok := os.LookupEnv("MIXDOWN_SPECTRUM_PORT"); ok {
		cfg.Spectrum.Port = val
	}
}
