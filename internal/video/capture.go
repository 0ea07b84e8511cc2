package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"camloop/internal/ffmpeg"
	"camloop/internal/ports"
)

// Config controls how the camera is opened for preview.
type Config struct {
	Command     string
	InputFormat string
	FrameRate   int
	Width       int
	Height      int
	Quality     int
}

// FFMPEGCapture opens V4L2 devices and previews them as MJPEG through ffmpeg.
type FFMPEGCapture struct {
	cfg    Config
	logger zerolog.Logger

	// overridable for tests
	probe func(path string) error
}

func NewFFMPEGCapture(cfg Config, logger zerolog.Logger) *FFMPEGCapture {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "v4l2"
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 7
	}
	return &FFMPEGCapture{
		cfg:    cfg,
		logger: logger.With().Str("component", "video_capture").Logger(),
		probe:  probeDevice,
	}
}

// Open checks that the device can be accessed and that ffmpeg is available.
func (c *FFMPEGCapture) Open(_ context.Context, deviceID string) (ports.CaptureResource, error) {
	if deviceID == "" {
		return nil, errors.New("no video device selected")
	}
	if err := c.probe(deviceID); err != nil {
		return nil, err
	}
	command, err := ffmpeg.Resolve(c.cfg.Command)
	if err != nil {
		return nil, err
	}
	return &captureResource{
		cfg:      c.cfg,
		command:  command,
		deviceID: deviceID,
		frames:   make(chan []byte, 2),
		logger:   c.logger.With().Str("device", deviceID).Logger(),
	}, nil
}

func probeDevice(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %w", ports.ErrAccessDenied, err)
		}
		return fmt.Errorf("video device unavailable: %w", err)
	}
	return f.Close()
}

type captureResource struct {
	cfg      Config
	command  string
	deviceID string
	logger   zerolog.Logger

	frames     chan []byte
	ended      atomic.Bool
	closeOnce  sync.Once
	framesDone sync.Once

	mu       sync.Mutex
	proc     *ffmpeg.Process
	pumpDone chan struct{}
	closed   bool
}

func (r *captureResource) Source() ports.FrameSource { return r }

func (r *captureResource) Frames() <-chan []byte { return r.frames }

func (r *captureResource) StartPreview(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.ended.Load() {
		return errors.New("capture resource closed")
	}
	if r.proc != nil {
		return nil
	}

	proc, err := ffmpeg.Start(ctx, ffmpeg.Options{
		Command:       r.command,
		Args:          r.previewArgs(),
		CaptureStdout: true,
	})
	if err != nil {
		return err
	}

	r.proc = proc
	r.pumpDone = make(chan struct{})
	go r.pump(proc, r.pumpDone)
	return nil
}

func (r *captureResource) previewArgs() []string {
	args := []string{"-f", r.cfg.InputFormat}
	if r.cfg.FrameRate > 0 {
		args = append(args, "-framerate", strconv.Itoa(r.cfg.FrameRate))
	}
	if r.cfg.Width > 0 && r.cfg.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", r.cfg.Width, r.cfg.Height))
	}
	return append(args,
		"-i", r.deviceID,
		"-an",
		"-f", "mjpeg",
		"-q:v", strconv.Itoa(r.cfg.Quality),
		"-",
	)
}

func (r *captureResource) pump(proc *ffmpeg.Process, done chan struct{}) {
	defer close(done)
	defer r.closeFrames()

	err := splitFrames(proc.Stdout(), func(frame []byte) {
		select {
		case r.frames <- frame:
		default:
			// drop when the sink is behind
		}
	})
	if err != nil {
		r.logger.Debug().Err(err).Msg("preview stream ended")
	}
}

func (r *captureResource) StopPreview(_ context.Context) error {
	r.mu.Lock()
	proc, done := r.proc, r.pumpDone
	r.proc, r.pumpDone = nil, nil
	r.mu.Unlock()

	if proc == nil {
		return nil
	}
	err := proc.Stop()
	<-done
	return err
}

func (r *captureResource) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.StopPreview(context.Background())
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		r.closeFrames()
	})
	return err
}

func (r *captureResource) closeFrames() {
	r.framesDone.Do(func() {
		r.ended.Store(true)
		close(r.frames)
	})
}
