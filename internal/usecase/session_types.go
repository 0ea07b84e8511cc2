package usecase

import (
	"camloop/internal/domain"
	"camloop/internal/ports"
)

// videoSessionState exists only while the preview runs.
type videoSessionState struct {
	device   domain.DeviceDescriptor
	resource ports.CaptureResource

	// nil when the wake-lock request failed
	wakeLock ports.WakeLock
}

// audioSessionState owns the graph and both nodes; they share one lifetime.
type audioSessionState struct {
	device  domain.DeviceDescriptor
	graph   ports.AudioGraph
	input   ports.AudioNode
	output  ports.AudioNode
	started bool
}
