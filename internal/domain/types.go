package domain

// DeviceKind identifies the class of a capture device.
type DeviceKind string

const (
	DeviceKindVideo DeviceKind = "video"
	DeviceKindAudio DeviceKind = "audio"
)

// DeviceDescriptor identifies one physical capture device.
type DeviceDescriptor struct {
	ID          string     `json:"id"`
	Kind        DeviceKind `json:"kind"`
	DisplayName string     `json:"displayName"`
}

// VideoState models the camera preview lifecycle.
type VideoState string

const (
	VideoStateIdle       VideoState = "idle"
	VideoStatePreviewing VideoState = "previewing"
)

// AudioState models the pass-through graph lifecycle.
type AudioState string

const (
	AudioStateIdle    AudioState = "idle"
	AudioStateRunning AudioState = "running"
)

// Controls mirrors the enablement flags exposed to the UI.
type Controls struct {
	CanStart    bool `json:"canStart"`
	StopEnabled bool `json:"stopEnabled"`
}

// Status summarizes the current runtime status.
type Status struct {
	Video       VideoState        `json:"video"`
	Audio       AudioState        `json:"audio"`
	CanStart    bool              `json:"canStart"`
	StopEnabled bool              `json:"stopEnabled"`
	VideoDevice *DeviceDescriptor `json:"videoDevice,omitempty"`
	AudioDevice *DeviceDescriptor `json:"audioDevice,omitempty"`
}
