package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mixdown/internal/config"
	"mixdown/pkg/build"
)

// Options is the parsed invocation: the resolved configuration, the
// audio files to play and any one-off command.
type Options struct {
	Config  *config.Config
	Command string   // one-off command ("list"), empty for playback
	Files   []string // audio files to play, in order
	Loop    bool     // loop music streams
}

func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()

	var cfgPath string
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [files...]",
		Short:         "Mix and play audio files through the system output device",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	// The config file has to be resolved before the other flags are
	// registered, since their defaults come from it. Pre-scan the args
	// for --config; the registered flag then only provides help text
	// and re-parses to the same value.
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			cfgPath = os.Args[i+1]
		} else if strings.HasPrefix(arg, "--config=") {
			cfgPath = strings.TrimPrefix(arg, "--config=")
		}
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Path to a YAML config file")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	opts.Config = cfg

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.OutputDevice, "device", "d", cfg.Audio.OutputDevice,
		"Output device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().StringVar(&cfg.Audio.Backend, "backend", cfg.Audio.Backend,
		"Output backend (portaudio|oto)")
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.Channels, "channels", "c", cfg.Audio.Channels,
		"Number of output channels (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&cfg.Audio.SampleRate, "sample-rate", "s", cfg.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.FramesPerBuffer, "frames-per-buffer", "b", cfg.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Audio.LowLatency, "low-latency", "l", cfg.Audio.LowLatency,
		"Use low latency mode for real-time playback")
	rootCmd.PersistentFlags().Float64Var(&cfg.Audio.MasterVolume, "volume", cfg.Audio.MasterVolume,
		"Master volume in [0,1]")

	// Playback Configuration
	rootCmd.PersistentFlags().BoolVar(&opts.Loop, "loop", false,
		"Loop music streams at end of stream")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&cfg.Record.Enabled, "record", "r", cfg.Record.Enabled,
		"Record the mixed output to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&cfg.Record.OutputFile, "output", "o", cfg.Record.OutputFile,
		"Output file name. Default is mixdown-DD-MM-YYYY-HHMMSS.wav")

	// Spectrum Configuration
	rootCmd.PersistentFlags().BoolVar(&cfg.Spectrum.Enabled, "spectrum", cfg.Spectrum.Enabled,
		"Broadcast spectrum frames over WebSocket")
	rootCmd.PersistentFlags().StringVar(&cfg.Spectrum.Port, "spectrum-port", cfg.Spectrum.Port,
		"WebSocket port for spectrum frames")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "verbose", "v", cfg.Debug,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Record.OutputFile == "" {
		cfg.Record.OutputFile = "mixdown-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	return opts, nil
}
