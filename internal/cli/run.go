package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"camloop/internal/domain"
	"camloop/internal/usecase"
)

func NewRunCmd(deps *Dependencies) *cobra.Command {
	var videoID string
	var audioID string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start camera preview and microphone pass-through",
		Long:  "Start the camera preview and route the microphone to the default output.\nRuns until Ctrl+C, SIGTERM, or --duration elapses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runSession(ctx, deps, videoID, audioID)
		},
	}

	cmd.Flags().StringVar(&videoID, "video", "", "Camera device id (see 'camloop devices')")
	cmd.Flags().StringVar(&audioID, "audio", "", "Audio input device id (see 'camloop devices')")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop automatically after this long")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("audio")

	return cmd
}

func runSession(ctx context.Context, deps *Dependencies, videoID string, audioID string) error {
	video, listed := resolveDevice(deps.Catalog.ListVideoDevices(ctx), domain.DeviceKindVideo, videoID)
	if !listed {
		deps.Out.Warning(fmt.Sprintf("camera %q not listed, trying it anyway", video.ID))
	}
	audio, listed := resolveDevice(deps.Catalog.ListAudioInputDevices(ctx), domain.DeviceKindAudio, audioID)
	if !listed {
		deps.Out.Warning(fmt.Sprintf("audio input %q not listed, trying it anyway", audio.ID))
	}

	deps.Controller.SelectVideoDevice(&video)
	deps.Controller.SelectAudioDevice(&audio)

	startedAt := time.Now()
	startErr := deps.Controller.Start(ctx)
	if errors.Is(startErr, usecase.ErrSelectionIncomplete) {
		return startErr
	}

	status := deps.Controller.Status()
	if status.Video == domain.VideoStateIdle && status.Audio == domain.AudioStateIdle {
		deps.Controller.Stop(context.Background())
		return fmt.Errorf("nothing started: %w", startErr)
	}
	deps.Out.SessionStarted(status)

	<-ctx.Done()

	deps.Controller.Stop(context.Background())
	var frames uint64
	if deps.Frames != nil {
		frames = deps.Frames.FrameCount()
	}
	deps.Out.SessionStopped(time.Since(startedAt), frames)
	return nil
}

// resolveDevice prefers the catalog entry so the display name is known.
func resolveDevice(listed []domain.DeviceDescriptor, kind domain.DeviceKind, id string) (domain.DeviceDescriptor, bool) {
	device, ok := lo.Find(listed, func(d domain.DeviceDescriptor) bool { return d.ID == id })
	if ok {
		return device, true
	}
	return domain.DeviceDescriptor{ID: id, Kind: kind, DisplayName: id}, false
}
