package devices

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"camloop/internal/domain"
)

const defaultSysfsRoot = "/sys/class/video4linux"

// Enumerator lists V4L2 cameras from sysfs and PulseAudio/PipeWire sources
// through pactl.
type Enumerator struct {
	sysfsRoot string
	devRoot   string
	pactl     string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewEnumerator(pactlCommand string) *Enumerator {
	if pactlCommand == "" {
		pactlCommand = "pactl"
	}
	return &Enumerator{
		sysfsRoot: defaultSysfsRoot,
		devRoot:   "/dev",
		pactl:     pactlCommand,
		run:       runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd.Output()
}

func (e *Enumerator) Enumerate(ctx context.Context, kind domain.DeviceKind) ([]domain.DeviceDescriptor, error) {
	switch kind {
	case domain.DeviceKindVideo:
		return e.videoDevices()
	case domain.DeviceKindAudio:
		return e.audioSources(ctx)
	default:
		return nil, fmt.Errorf("unsupported device kind %q", kind)
	}
}

func (e *Enumerator) videoDevices() ([]domain.DeviceDescriptor, error) {
	entries, err := os.ReadDir(e.sysfsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.sysfsRoot, err)
	}

	names := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		return entry.Name(), strings.HasPrefix(entry.Name(), "video")
	})

	devices := make([]domain.DeviceDescriptor, 0, len(names))
	for _, name := range names {
		// metadata nodes share the card name but cannot stream frames
		if index, err := os.ReadFile(filepath.Join(e.sysfsRoot, name, "index")); err == nil && strings.TrimSpace(string(index)) != "0" {
			continue
		}
		label := name
		if raw, err := os.ReadFile(filepath.Join(e.sysfsRoot, name, "name")); err == nil && strings.TrimSpace(string(raw)) != "" {
			label = strings.TrimSpace(string(raw))
		}
		devices = append(devices, domain.DeviceDescriptor{
			ID:          filepath.Join(e.devRoot, name),
			Kind:        domain.DeviceKindVideo,
			DisplayName: label,
		})
	}
	return devices, nil
}

func (e *Enumerator) audioSources(ctx context.Context) ([]domain.DeviceDescriptor, error) {
	out, err := e.run(ctx, e.pactl, "list", "short", "sources")
	if err != nil {
		return nil, fmt.Errorf("pactl list sources failed: %w", err)
	}
	names := parseShortSources(out)

	descriptions := map[string]string{}
	if long, err := e.run(ctx, e.pactl, "list", "sources"); err == nil {
		descriptions = parseSourceDescriptions(long)
	}

	return lo.Map(names, func(name string, _ int) domain.DeviceDescriptor {
		description, ok := descriptions[name]
		return domain.DeviceDescriptor{
			ID:          name,
			Kind:        domain.DeviceKindAudio,
			DisplayName: lo.Ternary(ok && description != "", description, name),
		}
	}), nil
}

// parseShortSources returns source names, skipping monitors of output sinks.
func parseShortSources(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSpace(fields[1])
		if name == "" || strings.HasSuffix(name, ".monitor") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func parseSourceDescriptions(out []byte) map[string]string {
	descriptions := map[string]string{}
	current := ""
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Source #"):
			current = ""
		case strings.HasPrefix(line, "Name:"):
			current = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "Description:") && current != "":
			descriptions[current] = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		}
	}
	return descriptions
}
