package bootstrap

import (
	"os"

	"github.com/rs/zerolog"

	"camloop/internal/audio"
	"camloop/internal/config"
	"camloop/internal/devices"
	"camloop/internal/logging"
	"camloop/internal/ports"
	"camloop/internal/uiqueue"
	"camloop/internal/usecase"
	"camloop/internal/video"
	"camloop/internal/wakelock"
)

// Runtime carries the collaborators owned by the hosting surface.
type Runtime struct {
	Events     ports.EventSink
	Sink       ports.PresentationSink
	Dispatcher ports.Dispatcher

	// NewLogger builds the root logger once the configured level is known.
	// Defaults to JSON lines on stderr.
	NewLogger func(level string) zerolog.Logger
}

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Catalog    *usecase.DeviceCatalog
	Config     config.Config
	Logger     zerolog.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build(rt Runtime) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(cfg, rt), nil
}

// BuildWithConfig wires the runtime graph from an already resolved config.
func BuildWithConfig(cfg config.Config, rt Runtime) Services {
	newLogger := rt.NewLogger
	if newLogger == nil {
		newLogger = func(level string) zerolog.Logger { return logging.New(os.Stderr, level) }
	}
	logger := newLogger(cfg.LogLevel)

	dispatcher := rt.Dispatcher
	if dispatcher == nil {
		dispatcher = uiqueue.Inline{}
	}

	var wake ports.WakeLockService = wakelock.Noop{}
	if cfg.WakeLock.Enabled {
		wake = wakelock.NewScreenSaver(cfg.WakeLock.App, cfg.WakeLock.Reason)
	}

	latency := ports.LatencyDefault
	if cfg.Audio.LowestLatency {
		latency = ports.LatencyLowest
	}

	controller := usecase.NewSessionController(
		usecase.Dependencies{
			Capture: video.NewFFMPEGCapture(video.Config{
				Command:     cfg.FFMPEGCommand,
				InputFormat: cfg.Video.InputFormat,
				FrameRate:   cfg.Video.FrameRate,
				Width:       cfg.Video.Width,
				Height:      cfg.Video.Height,
				Quality:     cfg.Video.Quality,
			}, logger),
			Sink:       rt.Sink,
			WakeLock:   wake,
			Dispatcher: dispatcher,
			AudioGraphs: audio.NewFFMPEGGraphService(audio.Config{
				Command:      cfg.FFMPEGCommand,
				InputFormat:  cfg.Audio.InputFormat,
				OutputFormat: cfg.Audio.OutputFormat,
				OutputDevice: cfg.Audio.OutputDevice,
				StreamName:   cfg.Audio.StreamName,
			}, logger),
			Events: rt.Events,
		},
		usecase.Config{
			Graph: ports.GraphSettings{
				Category:   ports.RenderCategoryMedia,
				Latency:    latency,
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
			},
		},
		logger,
	)

	catalog := usecase.NewDeviceCatalog(devices.NewEnumerator(cfg.Devices.PactlCommand), logger)

	return Services{
		Controller: controller,
		Catalog:    catalog,
		Config:     cfg,
		Logger:     logger,
	}
}
