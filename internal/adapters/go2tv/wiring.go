package go2tv

import (
	"context"

	"go2tv.app/go2tv/v2/castprotocol"
	"go2tv.app/go2tv/v2/devices"

	"castbot.app/castbot/internal/adapters"
	"castbot.app/castbot/internal/domain"
)

// Bundle wires all external go2tv-backed adapters in one place.
type Bundle struct {
	Discovery   adapters.Discovery
	CastFactory adapters.CastFactory
}

func NewBundle() Bundle {
	return Bundle{
		Discovery:   DiscoveryAdapter{},
		CastFactory: CastFactory{},
	}
}

type DiscoveryAdapter struct{}

func (DiscoveryAdapter) StartChromecastDiscoveryLoop(ctx context.Context) {
	devices.StartChromecastDiscoveryLoop(ctx)
}

func (DiscoveryAdapter) LoadAllDevices(delaySeconds int) ([]devices.Device, error) {
	return devices.LoadAllDevices(delaySeconds)
}

type CastFactory struct{}

func (CastFactory) NewCastClient(deviceAddr string) (adapters.CastClient, error) {
	client, err := castprotocol.NewCastClient(deviceAddr)
	if err != nil {
		return nil, err
	}

	return &CastClientAdapter{client: client}, nil
}

type CastClientAdapter struct {
	client *castprotocol.CastClient
}

func (c *CastClientAdapter) Connect() error {
	return c.client.Connect()
}

func (c *CastClientAdapter) Load(req adapters.LoadRequest) error {
	return c.client.Load(req.MediaURL, req.MimeType, int(req.StartTime), req.Duration, "", req.Live)
}

func (c *CastClientAdapter) Seek(seconds float64) error {
	return c.client.Seek(int(seconds))
}

func (c *CastClientAdapter) SetVolume(level float64) error {
	return c.client.SetVolume(float32(level))
}

func (c *CastClientAdapter) SetPlaybackRate(rate float64) error {
	return c.client.SetPlaybackRate(float32(rate))
}

func (c *CastClientAdapter) GetStatus() (*domain.StatusSnapshot, error) {
	status, err := c.client.GetStatus()
	if err != nil {
		return nil, err
	}

	return &domain.StatusSnapshot{
		PlayerState: status.PlayerState,
		CurrentTime: float64(status.CurrentTime),
		Duration:    float64(status.Duration),
		VolumeLevel: float64(status.Volume),
		Title:       status.MediaTitle,
	}, nil
}

func (c *CastClientAdapter) Stop() error {
	return c.client.Stop()
}

func (c *CastClientAdapter) Close(stopMedia bool) error {
	return c.client.Close(stopMedia)
}

var (
	_ adapters.Discovery   = DiscoveryAdapter{}
	_ adapters.CastFactory = CastFactory{}
)
