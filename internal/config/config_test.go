package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, dir string, contents string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Path != "" {
		t.Fatalf("expected no config file, got %q", cfg.Path)
	}
	if cfg.FFMPEGCommand != "ffmpeg" || cfg.Video.InputFormat != "v4l2" || cfg.Video.Quality != 7 {
		t.Fatalf("unexpected video defaults: %+v", cfg)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 2 || !cfg.Audio.LowestLatency {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if !cfg.WakeLock.Enabled || cfg.Devices.PactlCommand != "pactl" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadReadsHomeConfigFile(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, filepath.Join(home, ".config", "camloop"), `
ffmpeg_command = "/opt/ffmpeg"
log_level = "DEBUG"

[video]
frame_rate = 30
width = 1280
height = 720

[audio]
output_device = "alsa_output.usb"
lowest_latency = false

[wake_lock]
enabled = false
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("expected %q, got %q", path, cfg.Path)
	}
	if cfg.FFMPEGCommand != "/opt/ffmpeg" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected top-level config: %+v", cfg)
	}
	if cfg.Video.FrameRate != 30 || cfg.Video.Width != 1280 || cfg.Video.Height != 720 {
		t.Fatalf("unexpected video config: %+v", cfg.Video)
	}
	if cfg.Audio.OutputDevice != "alsa_output.usb" || cfg.Audio.LowestLatency {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.InputFormat != "pulse" {
		t.Fatalf("expected untouched defaults, got %+v", cfg.Audio)
	}
	if cfg.WakeLock.Enabled {
		t.Fatalf("expected wake lock disabled")
	}
}

func TestLoadPrefersXDGConfigHome(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeConfig(t, filepath.Join(xdg, "camloop"), "[devices]\npactl_command = \"pw-pactl\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Devices.PactlCommand != "pw-pactl" {
		t.Fatalf("expected XDG config, got %+v", cfg.Devices)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "camloop"), "[video\nwidth = ")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRespectsEnvOverrides(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "camloop"), "ffmpeg_command = \"file-ffmpeg\"\n")

	t.Setenv("CAMLOOP_FFMPEG_COMMAND", "env-ffmpeg")
	t.Setenv("CAMLOOP_VIDEO_INPUT_FORMAT", "video4linux2")
	t.Setenv("CAMLOOP_VIDEO_QUALITY", "3")
	t.Setenv("CAMLOOP_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("CAMLOOP_AUDIO_OUTPUT_FORMAT", "alsa")
	t.Setenv("CAMLOOP_AUDIO_OUTPUT_DEVICE", "hw:1")
	t.Setenv("CAMLOOP_SAMPLE_RATE", "44100")
	t.Setenv("CAMLOOP_CHANNELS", "1")
	t.Setenv("CAMLOOP_AUDIO_LOWEST_LATENCY", "off")
	t.Setenv("CAMLOOP_WAKE_LOCK", "no")
	t.Setenv("CAMLOOP_WAKE_LOCK_REASON", "Watching")
	t.Setenv("CAMLOOP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.FFMPEGCommand != "env-ffmpeg" {
		t.Fatalf("expected env to win over file, got %q", cfg.FFMPEGCommand)
	}
	if cfg.Video.InputFormat != "video4linux2" || cfg.Video.Quality != 3 {
		t.Fatalf("unexpected video config: %+v", cfg.Video)
	}
	if cfg.Audio.InputFormat != "alsa" || cfg.Audio.OutputFormat != "alsa" || cfg.Audio.OutputDevice != "hw:1" {
		t.Fatalf("unexpected audio endpoints: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.Channels != 1 || cfg.Audio.LowestLatency {
		t.Fatalf("unexpected audio format: %+v", cfg.Audio)
	}
	if cfg.WakeLock.Enabled || cfg.WakeLock.Reason != "Watching" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadInvalidNumericValuesFallback(t *testing.T) {
	isolate(t)
	t.Setenv("CAMLOOP_SAMPLE_RATE", "bad")
	t.Setenv("CAMLOOP_CHANNELS", "-1")
	t.Setenv("CAMLOOP_VIDEO_QUALITY", "99")
	t.Setenv("CAMLOOP_VIDEO_WIDTH", "640")
	t.Setenv("CAMLOOP_WAKE_LOCK", "not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Video.Quality != 7 {
		t.Fatalf("expected default quality, got %d", cfg.Video.Quality)
	}
	if cfg.Video.Width != 0 || cfg.Video.Height != 0 {
		t.Fatalf("expected size without height to be dropped, got %+v", cfg.Video)
	}
	if !cfg.WakeLock.Enabled {
		t.Fatalf("expected default wake lock enabled")
	}
}
