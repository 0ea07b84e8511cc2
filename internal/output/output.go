package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"camloop/internal/domain"
)

// Formatter writes human-readable CLI output.
type Formatter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, format, args...)
}

func (f *Formatter) DeviceListHeader(kind domain.DeviceKind) {
	switch kind {
	case domain.DeviceKindVideo:
		f.printf("📷 Cameras:\n")
	default:
		f.printf("🎙️  Audio inputs:\n")
	}
}

func (f *Formatter) DeviceItem(device domain.DeviceDescriptor) {
	if device.DisplayName == "" || device.DisplayName == device.ID {
		f.printf("  %s\n", device.ID)
		return
	}
	f.printf("  %-40s %s\n", device.ID, device.DisplayName)
}

func (f *Formatter) NoDevices() {
	f.printf("  (none found)\n")
}

func (f *Formatter) SessionStarted(status domain.Status) {
	f.printf("▶️  Video %s, audio %s (Ctrl+C to stop)\n", status.Video, status.Audio)
}

func (f *Formatter) SessionStopped(duration time.Duration, frames uint64) {
	f.printf("⏹️  Stopped after %s, %d frames previewed\n", duration.Round(time.Second), frames)
}

func (f *Formatter) Error(msg string) {
	f.printf("❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.printf("ℹ️  %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	f.printf("⚠️  %s\n", msg)
}

// EventPrinter reports session events on a Formatter.
type EventPrinter struct {
	f *Formatter
}

func NewEventPrinter(f *Formatter) *EventPrinter {
	return &EventPrinter{f: f}
}

func (p *EventPrinter) VideoStateChanged(state domain.VideoState) {
	p.f.Info(fmt.Sprintf("video %s", state))
}

func (p *EventPrinter) AudioStateChanged(state domain.AudioState) {
	p.f.Info(fmt.Sprintf("audio %s", state))
}

func (p *EventPrinter) ControlsChanged(domain.Controls) {}

func (p *EventPrinter) SessionError(kind domain.ErrorKind, detail string) {
	p.f.Warning(fmt.Sprintf("%s: %s", kind, detail))
}
