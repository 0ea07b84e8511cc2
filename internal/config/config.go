package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config stores runtime configuration shared by the desktop shell and the CLI.
type Config struct {
	FFMPEGCommand string
	Video         VideoConfig
	Audio         AudioConfig
	WakeLock      WakeLockConfig
	Devices       DevicesConfig
	LogLevel      string

	// Path is the config file that was loaded, empty when none was found.
	Path string
}

type VideoConfig struct {
	InputFormat string
	FrameRate   int
	Width       int
	Height      int
	Quality     int
}

type AudioConfig struct {
	InputFormat   string
	OutputFormat  string
	OutputDevice  string
	StreamName    string
	SampleRate    int
	Channels      int
	LowestLatency bool
}

type WakeLockConfig struct {
	Enabled bool
	App     string
	Reason  string
}

type DevicesConfig struct {
	PactlCommand string
}

type fileConfig struct {
	FFMPEGCommand string `toml:"ffmpeg_command"`
	LogLevel      string `toml:"log_level"`
	Video         struct {
		InputFormat string `toml:"input_format"`
		FrameRate   int    `toml:"frame_rate"`
		Width       int    `toml:"width"`
		Height      int    `toml:"height"`
		Quality     int    `toml:"quality"`
	} `toml:"video"`
	Audio struct {
		InputFormat   string `toml:"input_format"`
		OutputFormat  string `toml:"output_format"`
		OutputDevice  string `toml:"output_device"`
		StreamName    string `toml:"stream_name"`
		SampleRate    int    `toml:"sample_rate"`
		Channels      int    `toml:"channels"`
		LowestLatency *bool  `toml:"lowest_latency"`
	} `toml:"audio"`
	WakeLock struct {
		Enabled *bool  `toml:"enabled"`
		App     string `toml:"app"`
		Reason  string `toml:"reason"`
	} `toml:"wake_lock"`
	Devices struct {
		PactlCommand string `toml:"pactl_command"`
	} `toml:"devices"`
}

func defaults() Config {
	return Config{
		FFMPEGCommand: "ffmpeg",
		Video: VideoConfig{
			InputFormat: "v4l2",
			Quality:     7,
		},
		Audio: AudioConfig{
			InputFormat:   "pulse",
			OutputFormat:  "pulse",
			OutputDevice:  "default",
			StreamName:    "camloop",
			SampleRate:    48000,
			Channels:      2,
			LowestLatency: true,
		},
		WakeLock: WakeLockConfig{
			Enabled: true,
			App:     "camloop",
			Reason:  "Camera preview active",
		},
		Devices:  DevicesConfig{PactlCommand: "pactl"},
		LogLevel: "info",
	}
}

// Load resolves configuration from defaults, the optional config file and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := configFilePath(); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.Path = path
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.FFMPEGCommand = firstNonEmpty(fc.FFMPEGCommand, cfg.FFMPEGCommand)
	cfg.LogLevel = firstNonEmpty(fc.LogLevel, cfg.LogLevel)

	cfg.Video.InputFormat = firstNonEmpty(fc.Video.InputFormat, cfg.Video.InputFormat)
	cfg.Video.FrameRate = firstPositive(fc.Video.FrameRate, cfg.Video.FrameRate)
	cfg.Video.Width = firstPositive(fc.Video.Width, cfg.Video.Width)
	cfg.Video.Height = firstPositive(fc.Video.Height, cfg.Video.Height)
	cfg.Video.Quality = firstPositive(fc.Video.Quality, cfg.Video.Quality)

	cfg.Audio.InputFormat = firstNonEmpty(fc.Audio.InputFormat, cfg.Audio.InputFormat)
	cfg.Audio.OutputFormat = firstNonEmpty(fc.Audio.OutputFormat, cfg.Audio.OutputFormat)
	cfg.Audio.OutputDevice = firstNonEmpty(fc.Audio.OutputDevice, cfg.Audio.OutputDevice)
	cfg.Audio.StreamName = firstNonEmpty(fc.Audio.StreamName, cfg.Audio.StreamName)
	cfg.Audio.SampleRate = firstPositive(fc.Audio.SampleRate, cfg.Audio.SampleRate)
	cfg.Audio.Channels = firstPositive(fc.Audio.Channels, cfg.Audio.Channels)
	if fc.Audio.LowestLatency != nil {
		cfg.Audio.LowestLatency = *fc.Audio.LowestLatency
	}

	if fc.WakeLock.Enabled != nil {
		cfg.WakeLock.Enabled = *fc.WakeLock.Enabled
	}
	cfg.WakeLock.App = firstNonEmpty(fc.WakeLock.App, cfg.WakeLock.App)
	cfg.WakeLock.Reason = firstNonEmpty(fc.WakeLock.Reason, cfg.WakeLock.Reason)

	cfg.Devices.PactlCommand = firstNonEmpty(fc.Devices.PactlCommand, cfg.Devices.PactlCommand)
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.FFMPEGCommand = envOrDefault("CAMLOOP_FFMPEG_COMMAND", cfg.FFMPEGCommand)
	cfg.LogLevel = envOrDefault("CAMLOOP_LOG_LEVEL", cfg.LogLevel)

	cfg.Video.InputFormat = envOrDefault("CAMLOOP_VIDEO_INPUT_FORMAT", cfg.Video.InputFormat)
	cfg.Video.FrameRate = envOrDefaultInt("CAMLOOP_VIDEO_FRAME_RATE", cfg.Video.FrameRate)
	cfg.Video.Width = envOrDefaultInt("CAMLOOP_VIDEO_WIDTH", cfg.Video.Width)
	cfg.Video.Height = envOrDefaultInt("CAMLOOP_VIDEO_HEIGHT", cfg.Video.Height)
	cfg.Video.Quality = envOrDefaultInt("CAMLOOP_VIDEO_QUALITY", cfg.Video.Quality)

	cfg.Audio.InputFormat = envOrDefault("CAMLOOP_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.OutputFormat = envOrDefault("CAMLOOP_AUDIO_OUTPUT_FORMAT", cfg.Audio.OutputFormat)
	cfg.Audio.OutputDevice = envOrDefault("CAMLOOP_AUDIO_OUTPUT_DEVICE", cfg.Audio.OutputDevice)
	cfg.Audio.StreamName = envOrDefault("CAMLOOP_AUDIO_STREAM_NAME", cfg.Audio.StreamName)
	cfg.Audio.SampleRate = envOrDefaultInt("CAMLOOP_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("CAMLOOP_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.LowestLatency = envOrDefaultBool("CAMLOOP_AUDIO_LOWEST_LATENCY", cfg.Audio.LowestLatency)

	cfg.WakeLock.Enabled = envOrDefaultBool("CAMLOOP_WAKE_LOCK", cfg.WakeLock.Enabled)
	cfg.WakeLock.App = envOrDefault("CAMLOOP_WAKE_LOCK_APP", cfg.WakeLock.App)
	cfg.WakeLock.Reason = envOrDefault("CAMLOOP_WAKE_LOCK_REASON", cfg.WakeLock.Reason)

	cfg.Devices.PactlCommand = envOrDefault("CAMLOOP_PACTL_COMMAND", cfg.Devices.PactlCommand)
}

func normalize(cfg *Config) {
	base := defaults()
	if cfg.Video.FrameRate < 0 {
		cfg.Video.FrameRate = 0
	}
	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		cfg.Video.Width, cfg.Video.Height = 0, 0
	}
	if cfg.Video.Quality < 2 || cfg.Video.Quality > 31 {
		cfg.Video.Quality = base.Video.Quality
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = base.Audio.SampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = base.Audio.Channels
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
}

// Dir returns the directory holding config.toml.
func Dir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "camloop"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".config", "camloop"), nil
}

func configFilePath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
