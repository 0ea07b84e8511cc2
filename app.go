package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"camloop/internal/bootstrap"
	"camloop/internal/domain"
	"camloop/internal/preview"
	"camloop/internal/uiqueue"
	"camloop/internal/usecase"
)

const (
	eventVideo    = "camloop:video"
	eventAudio    = "camloop:audio"
	eventControls = "camloop:controls"
	eventError    = "camloop:error"
	eventFrame    = "camloop:frame"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	queue      *uiqueue.Queue
	sink       *preview.Sink
	controller *usecase.SessionController
	catalog    *usecase.DeviceCatalog
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.queue = uiqueue.New(16)
	a.sink = preview.NewSink(a.renderFrame, a.clearFrame)

	services, err := bootstrap.Build(bootstrap.Runtime{
		Events:     a,
		Sink:       a.sink,
		Dispatcher: a.queue,
	})
	if err != nil {
		a.bootErr = err
		a.emitError("startup", "Startup failed", err.Error())
		return
	}

	a.controller = services.Controller
	a.catalog = services.Catalog
	a.ControlsChanged(domain.Controls{})
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Close(context.Background())
	}
	if a.queue != nil {
		a.queue.Close()
	}
}

// ListVideoDevices returns the cameras currently attached.
func (a *App) ListVideoDevices() []domain.DeviceDescriptor {
	if a.catalog == nil {
		return []domain.DeviceDescriptor{}
	}
	return a.catalog.ListVideoDevices(a.ctx)
}

// ListAudioDevices returns the audio capture devices currently attached.
func (a *App) ListAudioDevices() []domain.DeviceDescriptor {
	if a.catalog == nil {
		return []domain.DeviceDescriptor{}
	}
	return a.catalog.ListAudioInputDevices(a.ctx)
}

// SelectVideoDevice records the camera to use; nil clears the selection.
func (a *App) SelectVideoDevice(device *domain.DeviceDescriptor) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if device != nil && device.Kind != domain.DeviceKindVideo {
		return domain.Status{}, fmt.Errorf("device %q is not a camera", device.ID)
	}
	a.controller.SelectVideoDevice(device)
	return a.controller.Status(), nil
}

// SelectAudioDevice records the microphone to use; nil clears the selection.
func (a *App) SelectAudioDevice(device *domain.DeviceDescriptor) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if device != nil && device.Kind != domain.DeviceKindAudio {
		return domain.Status{}, fmt.Errorf("device %q is not an audio input", device.ID)
	}
	a.controller.SelectAudioDevice(device)
	return a.controller.Status(), nil
}

// Start begins preview and pass-through. Per-session failures arrive as
// error events; only an incomplete selection is returned to the caller.
func (a *App) Start() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Start(a.ctx); errors.Is(err, usecase.ErrSelectionIncomplete) {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// Stop ends preview and pass-through.
func (a *App) Stop() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.controller.Stop(a.ctx)
	return a.controller.Status(), nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		return domain.Status{Video: domain.VideoStateIdle, Audio: domain.AudioStateIdle}
	}
	return a.controller.Status()
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return fmt.Errorf("backend unavailable: %w", a.bootErr)
	}
	if a.controller == nil {
		return errors.New("backend not initialized")
	}
	return nil
}

// VideoStateChanged emits preview state changes to the UI.
func (a *App) VideoStateChanged(state domain.VideoState) {
	a.emit(eventVideo, map[string]string{
		"state":   string(state),
		"message": videoStateMessage(state),
	})
}

// AudioStateChanged emits pass-through state changes to the UI.
func (a *App) AudioStateChanged(state domain.AudioState) {
	a.emit(eventAudio, map[string]string{
		"state":   string(state),
		"message": audioStateMessage(state),
	})
}

// ControlsChanged emits start/stop enablement.
func (a *App) ControlsChanged(controls domain.Controls) {
	a.emit(eventControls, map[string]bool{
		"canStart":    controls.CanStart,
		"stopEnabled": controls.StopEnabled,
	})
}

// SessionError emits reported session failures to the UI.
func (a *App) SessionError(kind domain.ErrorKind, detail string) {
	a.emitError(string(kind), errorMessage(kind, detail), detail)
}

func (a *App) emitError(kind string, message string, detail string) {
	a.emit(eventError, map[string]string{
		"kind":    kind,
		"message": message,
		"detail":  detail,
	})
}

func (a *App) renderFrame(frame []byte) {
	a.emit(eventFrame, map[string]string{"jpeg": base64.StdEncoding.EncodeToString(frame)})
}

func (a *App) clearFrame() {
	a.emit(eventFrame, map[string]string{"jpeg": ""})
}

func (a *App) emit(name string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

func videoStateMessage(state domain.VideoState) string {
	switch state {
	case domain.VideoStateIdle:
		return "Camera off"
	case domain.VideoStatePreviewing:
		return "Camera preview live"
	default:
		return ""
	}
}

func audioStateMessage(state domain.AudioState) string {
	switch state {
	case domain.AudioStateIdle:
		return "Audio off"
	case domain.AudioStateRunning:
		return "Microphone routed to speakers"
	default:
		return ""
	}
}

func errorMessage(kind domain.ErrorKind, detail string) string {
	switch kind {
	case domain.ErrorKindPermissionDenied:
		return "Camera access denied"
	case domain.ErrorKindDeviceUnavailable:
		return "Camera unavailable"
	case domain.ErrorKindGraphCreationFailed:
		return "Audio graph could not be created"
	case domain.ErrorKindInputNodeFailed:
		return "Microphone could not be opened"
	case domain.ErrorKindOutputNodeFailed:
		return "Speakers could not be opened"
	case domain.ErrorKindAudioInitFailed:
		return "Audio initialization failed"
	case domain.ErrorKindTeardownFailure:
		return "Stop did not complete cleanly"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
