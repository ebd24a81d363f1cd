package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"mixdown/cmd"
	"mixdown/internal/analysis"
	"mixdown/internal/config"
	"mixdown/internal/engine"
	"mixdown/internal/log"
	"mixdown/internal/transport"
	"mixdown/pkg/build"
)

// main is the entry point for the mixdown player.
// The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//   - Acquire the output device and start the mix callback
//
// 2. Concurrent Phase (Hot Path):
//   - Load the requested files and start playback
//   - Keep music rings refilled from the producer loop
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Unload streams and release the device
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}

	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg := opts.Config

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}

	// One-off commands don't need the engine running.
	if opts.Command == "list" {
		if err := engine.ListDevices(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}
	if len(opts.Files) == 0 {
		log.Infof("nothing to play, see --help")
		return
	}

	eng := engine.NewEngine(cfg)
	if err := eng.Init(); err != nil {
		// Not fatal: the engine keeps working silently without a device.
		log.Warnf("running without audio output: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Errorf("closing audio engine: %v", err)
		}
	}()

	var spectrumWS transport.Transport
	if cfg.Spectrum.Enabled {
		spectrumWS = transport.NewWebSocketTransport(":" + cfg.Spectrum.Port)
		defer spectrumWS.Close()
		sp := analysis.NewSpectrum(cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate,
			cfg.Audio.Channels, spectrumWS)
		eng.AttachMixedProcessor(sp)
	}

	if cfg.Record.Enabled {
		if err := eng.StartRecording(cfg.Record.OutputFile); err != nil {
			log.Errorf("starting mix recording: %v", err)
		} else {
			defer func() {
				if err := eng.StopRecording(); err != nil {
					log.Errorf("stopping mix recording: %v", err)
				} else {
					log.Infof("mix recorded to %s", cfg.Record.OutputFile)
				}
			}()
		}
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	var tracks []*engine.Music
	for _, path := range opts.Files {
		m, err := eng.LoadMusicStream(path)
		if !m.IsReady() {
			log.Errorf("skipping %s: %v", path, err)
			continue
		}
		m.SetLooping(opts.Loop)
		tracks = append(tracks, m)
		log.Infof("playing %s (%.1fs)", path, m.TimeLength())
	}
	if len(tracks) == 0 {
		log.Fatalf("no playable files")
	}
	defer func() {
		for _, m := range tracks {
			eng.UnloadMusicStream(m)
		}
	}()

	for _, m := range tracks {
		m.Play()
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// Refill at twice the buffer rate so the rings never starve.
	interval := time.Duration(float64(cfg.Audio.FramesPerBuffer) /
		cfg.Audio.SampleRate * float64(time.Second) / 2)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Infof("interrupted")
			return
		case <-ticker.C:
			playing := false
			for _, m := range tracks {
				m.Update()
				if m.IsPlaying() {
					playing = true
				}
			}
			if !playing {
				log.Infof("playback finished")
				return
			}
		}
	}
}
