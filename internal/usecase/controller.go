package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"camloop/internal/domain"
	"camloop/internal/ports"
)

var ErrSelectionIncomplete = errors.New("a video and an audio device must both be selected")

// Dependencies are the platform collaborators both sessions are built from.
type Dependencies struct {
	Capture     ports.CaptureEngine
	Sink        ports.PresentationSink
	WakeLock    ports.WakeLockService
	Dispatcher  ports.Dispatcher
	AudioGraphs ports.AudioGraphService
	Events      ports.EventSink
}

// Config controls session behavior.
type Config struct {
	Graph ports.GraphSettings
}

// SessionController is the sole owner of the video and audio sessions. It
// serializes Start and Stop end-to-end.
type SessionController struct {
	video  *VideoSession
	audio  *AudioSession
	events ports.EventSink
	logger zerolog.Logger

	opMu sync.Mutex

	selMu       sync.Mutex
	videoDevice *domain.DeviceDescriptor
	audioDevice *domain.DeviceDescriptor
	stopEnabled bool
}

func NewSessionController(deps Dependencies, cfg Config, logger zerolog.Logger) *SessionController {
	return &SessionController{
		video:  NewVideoSession(deps.Capture, deps.Sink, deps.WakeLock, deps.Dispatcher, logger),
		audio:  NewAudioSession(deps.AudioGraphs, cfg.Graph, logger),
		events: deps.Events,
		logger: logger.With().Str("component", "session_controller").Logger(),
	}
}

// SelectVideoDevice sets or, with nil, clears the video selection.
func (c *SessionController) SelectVideoDevice(device *domain.DeviceDescriptor) {
	c.selMu.Lock()
	c.videoDevice = cloneDescriptor(device)
	controls := c.controlsLocked()
	c.selMu.Unlock()

	c.events.ControlsChanged(controls)
}

// SelectAudioDevice sets or, with nil, clears the audio input selection.
func (c *SessionController) SelectAudioDevice(device *domain.DeviceDescriptor) {
	c.selMu.Lock()
	c.audioDevice = cloneDescriptor(device)
	controls := c.controlsLocked()
	c.selMu.Unlock()

	c.events.ControlsChanged(controls)
}

// CanStart reports whether both a video and an audio device are selected.
func (c *SessionController) CanStart() bool {
	c.selMu.Lock()
	defer c.selMu.Unlock()
	return c.controlsLocked().CanStart
}

// Start stops anything left from a previous run, then starts video followed
// by audio. Audio is attempted even if video fails. With an incomplete
// selection it stops and returns ErrSelectionIncomplete. The returned error joins
// per-session start failures; each one is also reported to the event sink.
func (c *SessionController) Start(ctx context.Context) error {
	c.selMu.Lock()
	video, audio := cloneDescriptor(c.videoDevice), cloneDescriptor(c.audioDevice)
	c.selMu.Unlock()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	logger := c.logger.With().Str("attempt", uuid.NewString()).Logger()

	c.stopLocked(ctx, logger)

	if video == nil || audio == nil {
		logger.Info().Msg("start skipped, selection incomplete")
		return ErrSelectionIncomplete
	}
	logger.Info().Str("video", video.ID).Str("audio", audio.ID).Msg("starting sessions")

	var errs []error
	if err := c.video.Start(ctx, *video); err != nil {
		c.report(logger, err, domain.ErrorKindDeviceUnavailable)
		errs = append(errs, err)
	}
	c.events.VideoStateChanged(c.video.State())

	if err := c.audio.Start(ctx, *audio); err != nil {
		c.report(logger, err, domain.ErrorKindAudioInitFailed)
		errs = append(errs, err)
	}
	c.events.AudioStateChanged(c.audio.State())

	c.setStopEnabled()
	return errors.Join(errs...)
}

// Stop stops video then audio. Failures are reported, never returned.
func (c *SessionController) Stop(ctx context.Context) {
	c.setStopEnabled()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopLocked(ctx, c.logger)
}

// Close releases every session on shutdown.
func (c *SessionController) Close(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopLocked(ctx, c.logger)
}

// Status returns the current session and control state.
func (c *SessionController) Status() domain.Status {
	c.selMu.Lock()
	controls := c.controlsLocked()
	video, audio := cloneDescriptor(c.videoDevice), cloneDescriptor(c.audioDevice)
	c.selMu.Unlock()

	return domain.Status{
		Video:       c.video.State(),
		Audio:       c.audio.State(),
		CanStart:    controls.CanStart,
		StopEnabled: controls.StopEnabled,
		VideoDevice: video,
		AudioDevice: audio,
	}
}

func (c *SessionController) stopLocked(ctx context.Context, logger zerolog.Logger) {
	videoActive := c.video.State() != domain.VideoStateIdle
	if err := c.video.Stop(ctx); err != nil {
		c.report(logger, err, domain.ErrorKindTeardownFailure)
	}
	if videoActive {
		c.events.VideoStateChanged(c.video.State())
	}

	audioActive := c.audio.State() != domain.AudioStateIdle
	if err := c.audio.Stop(ctx); err != nil {
		c.report(logger, err, domain.ErrorKindTeardownFailure)
	}
	if audioActive {
		c.events.AudioStateChanged(c.audio.State())
	}
}

// report uses fallback when err carries no kind of its own.
func (c *SessionController) report(logger zerolog.Logger, err error, fallback domain.ErrorKind) {
	kind, ok := domain.KindOf(err)
	if !ok {
		kind = fallback
	}
	logger.Warn().Err(err).Str("kind", string(kind)).Msg("session failure reported")
	c.events.SessionError(kind, err.Error())
}

func (c *SessionController) setStopEnabled() {
	c.selMu.Lock()
	c.stopEnabled = true
	controls := c.controlsLocked()
	c.selMu.Unlock()

	c.events.ControlsChanged(controls)
}

func (c *SessionController) controlsLocked() domain.Controls {
	return domain.Controls{
		CanStart:    c.videoDevice != nil && c.audioDevice != nil,
		StopEnabled: c.stopEnabled,
	}
}

func cloneDescriptor(device *domain.DeviceDescriptor) *domain.DeviceDescriptor {
	if device == nil {
		return nil
	}
	copied := *device
	return &copied
}
