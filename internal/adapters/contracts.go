package adapters

import (
	"context"

	"go2tv.app/go2tv/v2/devices"

	"castbot.app/castbot/internal/domain"
)

// Discovery provides LAN hardware discovery primitives.
type Discovery interface {
	StartChromecastDiscoveryLoop(ctx context.Context)
	LoadAllDevices(delaySeconds int) ([]devices.Device, error)
}

// LoadRequest carries everything needed to start playback of one media item.
type LoadRequest struct {
	MediaURL string
	MimeType string
	// StartTime is the initial playback offset in seconds.
	StartTime float64
	// Duration in seconds, zero when unknown or live.
	Duration float64
	Live     bool
}

// CastClient represents a controllable cast session on one device.
type CastClient interface {
	Connect() error
	Load(req LoadRequest) error
	Seek(seconds float64) error
	SetVolume(level float64) error
	SetPlaybackRate(rate float64) error
	GetStatus() (*domain.StatusSnapshot, error)
	Stop() error
	Close(stopMedia bool) error
}

// CastFactory creates CastClient instances.
type CastFactory interface {
	NewCastClient(deviceAddr string) (CastClient, error)
}
