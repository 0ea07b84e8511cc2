package cli

import (
	"github.com/spf13/cobra"

	"camloop/internal/domain"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached cameras and audio inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			printDevices(deps, domain.DeviceKindVideo, deps.Catalog.ListVideoDevices(ctx))
			printDevices(deps, domain.DeviceKindAudio, deps.Catalog.ListAudioInputDevices(ctx))
			return nil
		},
	}
}

func printDevices(deps *Dependencies, kind domain.DeviceKind, devices []domain.DeviceDescriptor) {
	deps.Out.DeviceListHeader(kind)
	if len(devices) == 0 {
		deps.Out.NoDevices()
		return
	}
	for _, device := range devices {
		deps.Out.DeviceItem(device)
	}
}
