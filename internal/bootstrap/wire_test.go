package bootstrap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"camloop/internal/config"
	"camloop/internal/domain"
	"camloop/internal/ports"
)

func TestBuildSuccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("CAMLOOP_WAKE_LOCK", "off")

	var gotLevel string
	services, err := Build(Runtime{
		Events: noopEventSink{},
		Sink:   noopSink{},
		NewLogger: func(level string) zerolog.Logger {
			gotLevel = level
			return zerolog.Nop()
		},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Controller == nil || services.Catalog == nil {
		t.Fatalf("expected controller and catalog")
	}
	if gotLevel != "info" {
		t.Fatalf("expected default level, got %q", gotLevel)
	}
	if services.Config.WakeLock.Enabled {
		t.Fatalf("expected wake lock disabled by env")
	}
	if services.Controller.CanStart() {
		t.Fatalf("expected nothing selected after build")
	}
}

func TestBuildFailsOnMalformedConfig(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "camloop")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	if _, err := Build(Runtime{Events: noopEventSink{}, Sink: noopSink{}}); err == nil {
		t.Fatalf("expected build error due to malformed config")
	}
}

func TestBuildWithConfigReportsStartFailures(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	events := &recordingEvents{}
	services := BuildWithConfig(config.Config{
		FFMPEGCommand: filepath.Join(t.TempDir(), "missing-ffmpeg"),
		Audio:         config.AudioConfig{SampleRate: 48000, Channels: 2},
		LogLevel:      "debug",
	}, Runtime{
		Events: events,
		Sink:   noopSink{},
		NewLogger: func(string) zerolog.Logger {
			return zerolog.New(&logs)
		},
	})

	services.Controller.SelectVideoDevice(&domain.DeviceDescriptor{ID: filepath.Join(t.TempDir(), "video0"), Kind: domain.DeviceKindVideo})
	services.Controller.SelectAudioDevice(&domain.DeviceDescriptor{ID: "mic", Kind: domain.DeviceKindAudio})
	if err := services.Controller.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail without devices")
	}

	status := services.Controller.Status()
	if status.Video != domain.VideoStateIdle || status.Audio != domain.AudioStateIdle {
		t.Fatalf("expected both sessions idle, got %+v", status)
	}
	if len(events.errors) != 2 {
		t.Fatalf("expected one error per session, got %v", events.errors)
	}
	if !strings.Contains(logs.String(), "attempt") {
		t.Fatalf("expected attempt id in logs: %s", logs.String())
	}
}

type noopEventSink struct{}

func (noopEventSink) VideoStateChanged(domain.VideoState)   {}
func (noopEventSink) AudioStateChanged(domain.AudioState)   {}
func (noopEventSink) ControlsChanged(domain.Controls)       {}
func (noopEventSink) SessionError(domain.ErrorKind, string) {}

type recordingEvents struct {
	noopEventSink
	errors []domain.ErrorKind
}

func (r *recordingEvents) SessionError(kind domain.ErrorKind, _ string) {
	r.errors = append(r.errors, kind)
}

type noopSink struct{}

func (noopSink) Attach(ports.FrameSource) {}
func (noopSink) Detach()                  {}
