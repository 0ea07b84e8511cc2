package audio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"camloop/internal/ffmpeg"
	"camloop/internal/ports"
)

var (
	errGraphDisposed = errors.New("audio graph disposed")
	errForeignNode   = errors.New("node does not belong to this graph")
)

// Config controls the ffmpeg routing endpoints.
type Config struct {
	Command      string
	InputFormat  string
	OutputFormat string
	OutputDevice string
	StreamName   string
}

// FFMPEGGraphService builds pass-through graphs on top of an ffmpeg process
// reading from a capture source and writing to a playback sink.
type FFMPEGGraphService struct {
	cfg     Config
	logger  zerolog.Logger
	resolve func(string) (string, error)
}

func NewFFMPEGGraphService(cfg Config, logger zerolog.Logger) *FFMPEGGraphService {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "pulse"
	}
	if cfg.OutputDevice == "" {
		cfg.OutputDevice = "default"
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "camloop"
	}
	return &FFMPEGGraphService{
		cfg:     cfg,
		logger:  logger.With().Str("component", "audio_graph").Logger(),
		resolve: ffmpeg.Resolve,
	}
}

// CreateGraph reports a status rather than an error when ffmpeg is missing
// or the settings cannot be honored.
func (s *FFMPEGGraphService) CreateGraph(_ context.Context, settings ports.GraphSettings) (ports.AudioGraph, ports.CreationStatus, error) {
	if settings.Category != "" && settings.Category != ports.RenderCategoryMedia {
		return nil, ports.CreationFormatNotSupported, nil
	}
	if settings.SampleRate < 0 || settings.Channels < 0 {
		return nil, ports.CreationFormatNotSupported, nil
	}

	command, err := s.resolve(s.cfg.Command)
	if err != nil {
		s.logger.Warn().Err(err).Msg("audio graph backend unavailable")
		return nil, ports.CreationDeviceNotAvailable, nil
	}

	return &graph{
		cfg:      s.cfg,
		command:  command,
		settings: settings,
		logger:   s.logger,
	}, ports.CreationSuccess, nil
}

type nodeKind string

const (
	nodeInput  nodeKind = "input"
	nodeOutput nodeKind = "output"
)

type node struct {
	graph  *graph
	kind   nodeKind
	device string

	mu       sync.Mutex
	disposed bool
}

func (n *node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disposed = true
	return nil
}

func (n *node) isDisposed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disposed
}

type graph struct {
	cfg      Config
	command  string
	settings ports.GraphSettings
	logger   zerolog.Logger

	mu       sync.Mutex
	from     *node
	to       *node
	proc     *ffmpeg.Process
	disposed bool
}

func (g *graph) CreateDeviceInputNode(_ context.Context, deviceID string) (ports.AudioNode, ports.CreationStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return nil, "", errGraphDisposed
	}
	if deviceID == "" {
		return nil, ports.CreationDeviceNotAvailable, nil
	}
	return &node{graph: g, kind: nodeInput, device: deviceID}, ports.CreationSuccess, nil
}

func (g *graph) CreateDeviceOutputNode(_ context.Context) (ports.AudioNode, ports.CreationStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return nil, "", errGraphDisposed
	}
	return &node{graph: g, kind: nodeOutput, device: g.cfg.OutputDevice}, ports.CreationSuccess, nil
}

func (g *graph) Connect(from ports.AudioNode, to ports.AudioNode) error {
	src, ok := from.(*node)
	if !ok || src.graph != g {
		return errForeignNode
	}
	dst, ok := to.(*node)
	if !ok || dst.graph != g {
		return errForeignNode
	}
	if src.kind != nodeInput || dst.kind != nodeOutput {
		return fmt.Errorf("cannot route %s node into %s node", src.kind, dst.kind)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return errGraphDisposed
	}
	g.from, g.to = src, dst
	return nil
}

func (g *graph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return errGraphDisposed
	}
	if g.proc != nil {
		return nil
	}
	if g.from == nil || g.to == nil {
		return errors.New("audio graph has no route")
	}
	if g.from.isDisposed() || g.to.isDisposed() {
		return errors.New("audio graph route uses a disposed node")
	}

	proc, err := ffmpeg.Start(context.Background(), ffmpeg.Options{
		Command: g.command,
		Args:    g.routeArgs(),
	})
	if err != nil {
		return err
	}
	g.proc = proc
	g.logger.Debug().Str("input", g.from.device).Str("output", g.to.device).Msg("route running")
	return nil
}

func (g *graph) routeArgs() []string {
	lowest := g.settings.Latency == ports.LatencyLowest

	var args []string
	if lowest {
		args = append(args, "-fflags", "nobuffer", "-flags", "low_delay", "-probesize", "32", "-analyzeduration", "0")
		if g.cfg.InputFormat == "pulse" {
			args = append(args, "-fragment_size", "512")
		}
	}
	args = append(args, "-f", g.cfg.InputFormat, "-i", g.from.device)
	if g.settings.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(g.settings.Channels))
	}
	if g.settings.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(g.settings.SampleRate))
	}
	args = append(args, "-f", g.cfg.OutputFormat)
	if lowest && g.cfg.OutputFormat == "pulse" {
		args = append(args, "-buffer_duration", "20")
	}
	if g.cfg.OutputFormat == "pulse" {
		if g.to.device != "default" {
			args = append(args, "-device", g.to.device)
		}
		return append(args, g.cfg.StreamName)
	}
	return append(args, g.to.device)
}

func (g *graph) Stop() error {
	g.mu.Lock()
	proc := g.proc
	g.proc = nil
	g.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.Stop()
}

func (g *graph) Close() error {
	err := g.Stop()

	g.mu.Lock()
	g.disposed = true
	g.from, g.to = nil, nil
	g.mu.Unlock()
	return err
}
