package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"camloop/internal/domain"
	"camloop/internal/ports"
)

// ErrSessionActive is returned when a session is started without stopping
// the previous one first.
var ErrSessionActive = errors.New("session already active")

// VideoSession owns a single live camera preview and its wake-lock.
type VideoSession struct {
	engine     ports.CaptureEngine
	sink       ports.PresentationSink
	wake       ports.WakeLockService
	dispatcher ports.Dispatcher
	logger     zerolog.Logger

	mu      sync.Mutex
	current *videoSessionState
}

func NewVideoSession(
	engine ports.CaptureEngine,
	sink ports.PresentationSink,
	wake ports.WakeLockService,
	dispatcher ports.Dispatcher,
	logger zerolog.Logger,
) *VideoSession {
	return &VideoSession{
		engine:     engine,
		sink:       sink,
		wake:       wake,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "video_session").Logger(),
	}
}

// State reports whether the preview is running.
func (s *VideoSession) State() domain.VideoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.VideoStateIdle
	}
	return domain.VideoStatePreviewing
}

// Start opens device, attaches it to the presentation sink and starts the
// preview. The session stays idle on any failure.
func (s *VideoSession) Start(ctx context.Context, device domain.DeviceDescriptor) (err error) {
	if s.State() != domain.VideoStateIdle {
		return domain.NewSessionError(domain.ErrorKindDeviceUnavailable, "initialize", ErrSessionActive)
	}

	var resource ports.CaptureResource
	attached := false
	defer func() {
		if r := recover(); r != nil {
			s.rollback(ctx, resource, attached)
			err = s.fail(device, domain.NewSessionError(domain.ErrorKindDeviceUnavailable, "initialize", fmt.Errorf("panic: %v", r)))
		}
	}()

	resource, err = s.engine.Open(ctx, device.ID)
	if err != nil {
		resource = nil
		return s.fail(device, domain.NewSessionError(classifyCaptureErr(err), "initialize", err))
	}

	s.sink.Attach(resource.Source())
	attached = true

	if err := resource.StartPreview(ctx); err != nil {
		s.rollback(ctx, resource, attached)
		return s.fail(device, domain.NewSessionError(classifyCaptureErr(err), "start preview", err))
	}

	state := &videoSessionState{device: device, resource: resource}

	lock, err := s.wake.RequestActive(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("device", device.ID).Msg("display wake-lock not acquired")
	} else {
		state.wakeLock = lock
	}

	s.mu.Lock()
	s.current = state
	s.mu.Unlock()

	s.logger.Info().
		Str("device", device.ID).
		Str("name", device.DisplayName).
		Bool("wake_lock", state.wakeLock != nil).
		Msg("preview started")
	return nil
}

// Stop tears down the preview. It is a no-op when idle. All teardown steps
// run even if earlier ones fail.
func (s *VideoSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	state := s.current
	s.current = nil
	s.mu.Unlock()

	if state == nil {
		return nil
	}

	ctx = context.WithoutCancel(ctx)

	steps := teardown{}.
		add("stop preview", func() error {
			return state.resource.StopPreview(ctx)
		}).
		add("detach presentation sink", func() error {
			return s.dispatcher.Run(ctx, s.sink.Detach)
		}).
		add("release wake-lock", func() error {
			if state.wakeLock == nil {
				return nil
			}
			var releaseErr error
			if err := s.dispatcher.Run(ctx, func() { releaseErr = state.wakeLock.Release() }); err != nil {
				return err
			}
			return releaseErr
		}).
		add("release capture resource", func() error {
			return state.resource.Close()
		})

	if err := steps.Run(); err != nil {
		s.logger.Error().Err(err).Str("device", state.device.ID).Msg("preview teardown incomplete")
		return domain.NewSessionError(domain.ErrorKindTeardownFailure, "video stop", err)
	}

	s.logger.Info().Str("device", state.device.ID).Msg("preview stopped")
	return nil
}

func (s *VideoSession) rollback(ctx context.Context, resource ports.CaptureResource, attached bool) {
	ctx = context.WithoutCancel(ctx)
	steps := teardown{}
	if attached {
		steps = steps.add("detach presentation sink", func() error {
			return s.dispatcher.Run(ctx, s.sink.Detach)
		})
	}
	if resource != nil {
		steps = steps.add("release capture resource", resource.Close)
	}
	if err := steps.Run(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release partial preview")
	}
}

func (s *VideoSession) fail(device domain.DeviceDescriptor, err *domain.SessionError) error {
	event := s.logger.Error()
	if err.Kind == domain.ErrorKindPermissionDenied {
		event = s.logger.Warn()
	}
	event.Err(err.Err).
		Str("device", device.ID).
		Str("kind", string(err.Kind)).
		Str("stage", err.Stage).
		Msg("preview start failed")
	return err
}

func classifyCaptureErr(err error) domain.ErrorKind {
	if errors.Is(err, ports.ErrAccessDenied) {
		return domain.ErrorKindPermissionDenied
	}
	return domain.ErrorKindDeviceUnavailable
}
