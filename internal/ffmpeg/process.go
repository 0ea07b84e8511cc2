package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultStartupProbe = 250 * time.Millisecond
	defaultStopGrace    = 1200 * time.Millisecond
)

// Options describe one ffmpeg invocation.
type Options struct {
	Command       string
	Args          []string
	CaptureStdout bool
	StartupProbe  time.Duration
	StopGrace     time.Duration
}

// Process is a supervised ffmpeg child. It outlives the context used to
// start it; call Stop to end it.
type Process struct {
	stdout *os.File
	stderr *syncBuffer

	process *os.Process
	waitErr <-chan error
	exited  chan struct{}
	grace   time.Duration

	stopOnce sync.Once
	stopErr  error
}

// Resolve returns the absolute path of command or an error if it is not
// installed.
func Resolve(command string) (string, error) {
	if command == "" {
		command = "ffmpeg"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("ffmpeg command %q not found: %w", command, err)
	}
	return path, nil
}

// Start launches ffmpeg and waits for the startup probe window. A process
// that exits within the window is reported as a start failure.
func Start(ctx context.Context, opts Options) (*Process, error) {
	if opts.Command == "" {
		opts.Command = "ffmpeg"
	}
	if opts.StartupProbe <= 0 {
		opts.StartupProbe = defaultStartupProbe
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}

	args := append([]string{"-nostdin", "-hide_banner", "-loglevel", "warning"}, opts.Args...)
	cmd := exec.Command(opts.Command, args...)
	stderr := &syncBuffer{}
	cmd.Stderr = stderr
	cmd.WaitDelay = opts.StopGrace

	// The read end is owned by Process rather than by cmd, so Wait never
	// closes it while frames are still buffered in the pipe.
	var stdout, stdoutWriter *os.File
	if opts.CaptureStdout {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
		}
		cmd.Stdout = w
		stdout, stdoutWriter = r, w
	}
	err := cmd.Start()
	if stdoutWriter != nil {
		_ = stdoutWriter.Close()
	}
	if err != nil {
		if stdout != nil {
			_ = stdout.Close()
		}
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
		close(exited)
	}()

	p := &Process{
		stdout:  stdout,
		stderr:  stderr,
		process: cmd.Process,
		waitErr: waitErr,
		exited:  exited,
		grace:   opts.StopGrace,
	}

	timer := time.NewTimer(opts.StartupProbe)
	defer timer.Stop()

	select {
	case err := <-waitErr:
		if stdout != nil {
			_ = stdout.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, trimSpace(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-ctx.Done():
		_ = p.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	return p, nil
}

// Stdout returns the process output, or nil when it was not captured.
func (p *Process) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Stderr returns what ffmpeg has logged so far.
func (p *Process) Stderr() string {
	return trimSpace(p.stderr.String())
}

// Stop interrupts ffmpeg, kills it after the grace period and reaps it.
// Only the first call does any work.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		if p.process != nil {
			_ = p.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-p.waitErr:
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		case <-time.After(p.grace):
			if p.process != nil {
				_ = p.process.Kill()
			}
			err, ok := <-p.waitErr
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		}

		if p.stdout != nil {
			if closeErr := p.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				if p.stopErr == nil {
					p.stopErr = closeErr
				}
			}
		}

		if p.stopErr != nil && p.stderr.Len() > 0 {
			p.stopErr = fmt.Errorf("%w: %s", p.stopErr, trimSpace(p.stderr.String()))
		}
	})

	return p.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}

func trimSpace(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
