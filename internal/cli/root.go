package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"camloop/internal/domain"
	"camloop/internal/output"
	"camloop/internal/version"
)

// Controller is the session surface the CLI drives.
type Controller interface {
	SelectVideoDevice(device *domain.DeviceDescriptor)
	SelectAudioDevice(device *domain.DeviceDescriptor)
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Status() domain.Status
}

// Catalog lists attached devices.
type Catalog interface {
	ListVideoDevices(ctx context.Context) []domain.DeviceDescriptor
	ListAudioInputDevices(ctx context.Context) []domain.DeviceDescriptor
}

// FrameCounter reports how many preview frames were presented.
type FrameCounter interface {
	FrameCount() uint64
}

type Dependencies struct {
	Controller Controller
	Catalog    Catalog
	Frames     FrameCounter
	Out        *output.Formatter
	Stdout     io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "camloop",
		Short:         "Preview a camera and loop a microphone to the speakers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewVersionCmd(deps))

	return rootCmd
}

func NewVersionCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(deps.Stdout, version.Full())
		},
	}
}
