package config

// Core configuration constants that define the boundaries and defaults
// for the playback engine.
const (
	// Default values for the engine configuration
	DefaultBackend         = "portaudio" // Output backend (portaudio|oto)
	DefaultChannels        = 2           // Stereo output
	DefaultDeviceID        = MinDeviceID // System default output device
	DefaultFramesPerBuffer = 512         // Frames per mix tick (latency/CPU tradeoff)
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultStreamSegments  = 2           // Ring segments per stream (double buffer)
	DefaultMasterVolume    = 1.0         // Full scale
	DefaultRecordMix       = false       // Don't record the mix by default
	DefaultOutputFile      = ""          // Auto-generated filename
	DefaultSpectrumPort    = "8080"      // WebSocket port for spectrum frames

	// Hardware and processing limits
	MinDeviceID       = -1     // -1 represents system default device
	MinSampleRate     = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate     = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames   = 8192   // Maximum frames per buffer (power of 2)
	MaxStreamSegments = 16     // Upper bound on ring segments per stream
)

// Config holds all runtime configuration options for the playback engine.
// It is constructed via command line flags and/or a YAML config file.
type Config struct {
	Debug    bool           `yaml:"debug"`     // Verbose logging and debug features
	LogLevel string         `yaml:"log_level"` // Logging level (debug, info, warn, error)
	Audio    AudioConfig    `yaml:"audio"`     // Output device and mixing settings
	Record   RecordConfig   `yaml:"record"`    // Mix recording settings
	Spectrum SpectrumConfig `yaml:"spectrum"`  // Spectrum analyzer broadcast settings
}

// AudioConfig holds settings for the output device and the mixer.
type AudioConfig struct {
	Backend         string  `yaml:"backend"`           // Output backend: "portaudio" or "oto"
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index (-1 for default)
	SampleRate      float64 `yaml:"sample_rate"`       // Device sample rate in Hz
	Channels        int     `yaml:"channels"`          // Output channels (2 = stereo)
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per mix tick
	StreamSegments  int     `yaml:"stream_segments"`   // Ring segments per audio stream (>= 2)
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device
	MasterVolume    float64 `yaml:"master_volume"`     // Master volume in [0,1]
}

// RecordConfig holds settings for recording the final mix to a WAV file.
type RecordConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record the mixed output
	OutputFile string `yaml:"output_file"` // Destination WAV path
}

// SpectrumConfig holds settings for the spectrum analyzer processor.
type SpectrumConfig struct {
	Enabled bool   `yaml:"enabled"` // Attach the spectrum analyzer to the mix
	Port    string `yaml:"port"`    // WebSocket broadcast port
}

// New creates a Config with default values. This is the base configuration
// before applying command line arguments or config file settings.
func New() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			StreamSegments:  DefaultStreamSegments,
			LowLatency:      DefaultLowLatency,
			MasterVolume:    DefaultMasterVolume,
		},
		Record: RecordConfig{
			Enabled:    DefaultRecordMix,
			OutputFile: DefaultOutputFile,
		},
		Spectrum: SpectrumConfig{
			Enabled: false,
			Port:    DefaultSpectrumPort,
		},
	}
}
