package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"camloop/internal/domain"
	"camloop/internal/ports"
)

// AudioSession owns a single low-latency graph routing one input device to
// the default output device.
type AudioSession struct {
	graphs   ports.AudioGraphService
	settings ports.GraphSettings
	logger   zerolog.Logger

	mu      sync.Mutex
	current *audioSessionState
}

func NewAudioSession(graphs ports.AudioGraphService, settings ports.GraphSettings, logger zerolog.Logger) *AudioSession {
	if settings.Category == "" {
		settings.Category = ports.RenderCategoryMedia
	}
	if settings.Latency == "" {
		settings.Latency = ports.LatencyLowest
	}
	return &AudioSession{
		graphs:   graphs,
		settings: settings,
		logger:   logger.With().Str("component", "audio_session").Logger(),
	}
}

// State reports whether the graph is running.
func (s *AudioSession) State() domain.AudioState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.AudioStateIdle
	}
	return domain.AudioStateRunning
}

// Start builds graph -> input node -> output node, connects them and starts
// the graph. Whatever this attempt created is released before a failure is
// returned.
func (s *AudioSession) Start(ctx context.Context, input domain.DeviceDescriptor) (err error) {
	if s.State() != domain.AudioStateIdle {
		return domain.NewSessionError(domain.ErrorKindAudioInitFailed, "create graph", ErrSessionActive)
	}

	attempt := &audioSessionState{device: input}
	stage := "create graph"
	defer func() {
		if r := recover(); r != nil {
			s.release(attempt)
			err = s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, fmt.Errorf("panic: %v", r)))
		}
	}()

	graph, status, err := s.graphs.CreateGraph(ctx, s.settings)
	attempt.graph = graph
	if err != nil {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, err))
	}
	if status != ports.CreationSuccess {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindGraphCreationFailed, stage, statusErr(status)))
	}

	stage = "create input node"
	inputNode, status, err := graph.CreateDeviceInputNode(ctx, input.ID)
	attempt.input = inputNode
	if err != nil {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, err))
	}
	if status != ports.CreationSuccess {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindInputNodeFailed, stage, statusErr(status)))
	}

	stage = "create output node"
	outputNode, status, err := graph.CreateDeviceOutputNode(ctx)
	attempt.output = outputNode
	if err != nil {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, err))
	}
	if status != ports.CreationSuccess {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindOutputNodeFailed, stage, statusErr(status)))
	}

	stage = "connect"
	if err := graph.Connect(inputNode, outputNode); err != nil {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, err))
	}

	stage = "start graph"
	if err := graph.Start(); err != nil {
		s.release(attempt)
		return s.fail(input, domain.NewSessionError(domain.ErrorKindAudioInitFailed, stage, err))
	}
	attempt.started = true

	s.mu.Lock()
	s.current = attempt
	s.mu.Unlock()

	s.logger.Info().
		Str("device", input.ID).
		Str("name", input.DisplayName).
		Str("latency", string(s.settings.Latency)).
		Msg("audio pass-through started")
	return nil
}

// Stop stops the graph and disposes input node, output node and graph in
// that order. It is a no-op when idle.
func (s *AudioSession) Stop(_ context.Context) error {
	s.mu.Lock()
	state := s.current
	s.current = nil
	s.mu.Unlock()

	if state == nil {
		return nil
	}

	if err := s.teardown(state).Run(); err != nil {
		s.logger.Error().Err(err).Str("device", state.device.ID).Msg("audio teardown incomplete")
		return domain.NewSessionError(domain.ErrorKindTeardownFailure, "audio stop", err)
	}

	s.logger.Info().Str("device", state.device.ID).Msg("audio pass-through stopped")
	return nil
}

func (s *AudioSession) teardown(state *audioSessionState) teardown {
	steps := teardown{}
	if state.graph != nil && state.started {
		steps = steps.add("stop graph", state.graph.Stop)
	}
	if state.input != nil {
		steps = steps.add("dispose input node", state.input.Close)
	}
	if state.output != nil {
		steps = steps.add("dispose output node", state.output.Close)
	}
	if state.graph != nil {
		steps = steps.add("dispose graph", state.graph.Close)
	}
	return steps
}

func (s *AudioSession) release(attempt *audioSessionState) {
	err := s.teardown(attempt).Run()
	attempt.graph, attempt.input, attempt.output = nil, nil, nil
	if err != nil {
		s.logger.Warn().Err(err).Str("device", attempt.device.ID).Msg("failed to release partial audio graph")
	}
}

func (s *AudioSession) fail(device domain.DeviceDescriptor, err *domain.SessionError) error {
	s.logger.Error().
		Err(err.Err).
		Str("device", device.ID).
		Str("kind", string(err.Kind)).
		Str("stage", err.Stage).
		Msg("audio start failed")
	return err
}

func statusErr(status ports.CreationStatus) error {
	return fmt.Errorf("creation status %s", status)
}
