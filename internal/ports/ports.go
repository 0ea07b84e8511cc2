package ports

import (
	"context"
	"errors"

	"camloop/internal/domain"
)

// ErrAccessDenied is wrapped by capture adapters when the platform refuses
// access to the hardware.
var ErrAccessDenied = errors.New("hardware access denied")

// DeviceEnumerator lists capture devices of one class.
type DeviceEnumerator interface {
	Enumerate(ctx context.Context, kind domain.DeviceKind) ([]domain.DeviceDescriptor, error)
}

// FrameSource produces encoded preview frames until its channel closes.
type FrameSource interface {
	Frames() <-chan []byte
}

// CaptureResource is an exclusive open camera pipeline bound to one device.
type CaptureResource interface {
	StartPreview(ctx context.Context) error
	StopPreview(ctx context.Context) error
	Source() FrameSource
	Close() error
}

// CaptureEngine opens capture resources.
type CaptureEngine interface {
	Open(ctx context.Context, deviceID string) (CaptureResource, error)
}

// PresentationSink is the surface that displays live frames.
type PresentationSink interface {
	Attach(source FrameSource)
	Detach()
}

// WakeLock is an active display wake request.
type WakeLock interface {
	Release() error
}

// WakeLockService keeps the display awake while preview runs.
type WakeLockService interface {
	RequestActive(ctx context.Context) (WakeLock, error)
}

// RenderCategory describes what kind of audio the graph carries.
type RenderCategory string

const RenderCategoryMedia RenderCategory = "media"

// LatencyMode selects the graph quantum size.
type LatencyMode string

const (
	LatencyDefault LatencyMode = "default"
	LatencyLowest  LatencyMode = "lowest"
)

// GraphSettings describes how an audio graph should be created.
type GraphSettings struct {
	Category   RenderCategory
	Latency    LatencyMode
	SampleRate int
	Channels   int
}

// CreationStatus is the non-fault outcome of a graph or node creation.
type CreationStatus string

const (
	CreationSuccess            CreationStatus = "success"
	CreationDeviceNotAvailable CreationStatus = "device_not_available"
	CreationFormatNotSupported CreationStatus = "format_not_supported"
	CreationAccessDenied       CreationStatus = "access_denied"
	CreationUnknownFailure     CreationStatus = "unknown_failure"
)

// AudioNode is a device-bound endpoint inside an audio graph.
type AudioNode interface {
	Close() error
}

// AudioGraph routes audio between nodes.
type AudioGraph interface {
	CreateDeviceInputNode(ctx context.Context, deviceID string) (AudioNode, CreationStatus, error)
	CreateDeviceOutputNode(ctx context.Context) (AudioNode, CreationStatus, error)
	Connect(from AudioNode, to AudioNode) error
	Start() error
	Stop() error
	Close() error
}

// AudioGraphService creates low-latency audio graphs.
type AudioGraphService interface {
	CreateGraph(ctx context.Context, settings GraphSettings) (AudioGraph, CreationStatus, error)
}

// Dispatcher runs work on the queue that owns the UI surface.
type Dispatcher interface {
	Run(ctx context.Context, fn func()) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	VideoStateChanged(state domain.VideoState)
	AudioStateChanged(state domain.AudioState)
	ControlsChanged(controls domain.Controls)
	SessionError(kind domain.ErrorKind, detail string)
}
