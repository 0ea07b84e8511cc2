package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"camloop/internal/domain"
	"camloop/internal/ports"
)

// DeviceCatalog enumerates capture devices on demand. Nothing is cached.
type DeviceCatalog struct {
	enumerator ports.DeviceEnumerator
	logger     zerolog.Logger
}

func NewDeviceCatalog(enumerator ports.DeviceEnumerator, logger zerolog.Logger) *DeviceCatalog {
	return &DeviceCatalog{
		enumerator: enumerator,
		logger:     logger.With().Str("component", "device_catalog").Logger(),
	}
}

func (c *DeviceCatalog) ListVideoDevices(ctx context.Context) []domain.DeviceDescriptor {
	return c.list(ctx, domain.DeviceKindVideo)
}

func (c *DeviceCatalog) ListAudioInputDevices(ctx context.Context) []domain.DeviceDescriptor {
	return c.list(ctx, domain.DeviceKindAudio)
}

func (c *DeviceCatalog) list(ctx context.Context, kind domain.DeviceKind) []domain.DeviceDescriptor {
	devices, err := c.enumerator.Enumerate(ctx, kind)
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", string(kind)).Msg("device enumeration unavailable")
		return []domain.DeviceDescriptor{}
	}
	return lo.Filter(devices, func(d domain.DeviceDescriptor, _ int) bool {
		return d.Kind == kind && d.ID != ""
	})
}
