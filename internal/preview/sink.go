package preview

import (
	"sync"
	"sync/atomic"

	"camloop/internal/ports"
)

// RenderFunc displays one encoded frame.
type RenderFunc func(frame []byte)

// Sink pumps frames from an attached source into a render func.
type Sink struct {
	render   RenderFunc
	onDetach func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	frames atomic.Uint64
}

func NewSink(render RenderFunc, onDetach func()) *Sink {
	if render == nil {
		render = func([]byte) {}
	}
	return &Sink{render: render, onDetach: onDetach}
}

// Attach starts pumping from source, replacing any previous source.
func (s *Sink) Attach(source ports.FrameSource) {
	s.Detach()
	if source == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	frames := source.Frames()
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				s.frames.Add(1)
				s.render(frame)
			}
		}
	}()
}

// Detach stops the pump and waits for it to exit. Safe to call when nothing
// is attached.
func (s *Sink) Detach() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	if s.onDetach != nil {
		s.onDetach()
	}
}

// Attached reports whether a source is currently attached.
func (s *Sink) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// FrameCount returns the number of frames rendered since creation.
func (s *Sink) FrameCount() uint64 {
	return s.frames.Load()
}
