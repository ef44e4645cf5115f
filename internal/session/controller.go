// Package session drives one cast device: connect, play, transport
// controls and the background status loop that feeds resume history.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"castbot.app/castbot/internal/adapters"
	"castbot.app/castbot/internal/domain"
	"castbot.app/castbot/internal/parser"
	"castbot.app/castbot/internal/state"
)

const (
	defaultPollInterval = 9 * time.Second
	defaultStatusSettle = 1 * time.Second

	defaultReadyTimeout   = 10 * time.Second
	defaultReadyPollEvery = 500 * time.Millisecond

	defaultActiveTimeout   = 15 * time.Second
	defaultActivePollEvery = 250 * time.Millisecond

	minPlaybackRate = 0.5
	maxPlaybackRate = 2.0
)

// State is the session lifecycle phase. Transitions are driven by
// commands and by observed device status, never by timers.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StatePlaying      State = "playing"
	StatePaused       State = "paused"
)

type deviceResolver interface {
	Resolve(ctx context.Context, friendlyName string) (*domain.Device, error)
}

type Config struct {
	DeviceName  string
	Resolver    deviceResolver
	CastFactory adapters.CastFactory
	Resume      *state.Resume
	Store       *state.Store
	Parsers     *parser.Registry
	Logger      *slog.Logger
}

type Controller struct {
	deviceName  string
	resolver    deviceResolver
	castFactory adapters.CastFactory
	resume      *state.Resume
	store       *state.Store
	parsers     *parser.Registry
	logger      *slog.Logger

	pollEvery       time.Duration
	statusSettle    time.Duration
	readyTimeout    time.Duration
	readyPollEvery  time.Duration
	activeTimeout   time.Duration
	activePollEvery time.Duration
	now             func() time.Time

	pollCancel context.CancelFunc
	pollDone   chan struct{}
	closeOnce  sync.Once
	closeErr   error

	mu         sync.Mutex
	st         State
	client     adapters.CastClient
	device     *domain.Device
	current    *domain.MediaDescriptor
	lastStatus domain.StatusSnapshot
	closed     bool
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		deviceName:      cfg.DeviceName,
		resolver:        cfg.Resolver,
		castFactory:     cfg.CastFactory,
		resume:          cfg.Resume,
		store:           cfg.Store,
		parsers:         cfg.Parsers,
		logger:          logger,
		pollEvery:       defaultPollInterval,
		statusSettle:    defaultStatusSettle,
		readyTimeout:    defaultReadyTimeout,
		readyPollEvery:  defaultReadyPollEvery,
		activeTimeout:   defaultActiveTimeout,
		activePollEvery: defaultActivePollEvery,
		now:             time.Now,
		st:              StateDisconnected,
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Current returns the descriptor of the most recently loaded media, nil
// before the first successful play.
func (c *Controller) Current() *domain.MediaDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	d := *c.current
	return &d
}

// LastStatus returns the most recent device status observation.
func (c *Controller) LastStatus() domain.StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

// Connect resolves the configured device, opens a cast connection, waits
// for the device to report status and applies the persisted volume. Any
// previous connection is replaced and closed without stopping media.
func (c *Controller) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	device, err := c.resolver.Resolve(ctx, c.deviceName)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	client, err := c.castFactory.NewCastClient(device.Address)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("create cast client for %s: %w", device.Name, err)
	}
	if err := client.Connect(); err != nil {
		_ = client.Close(false)
		c.setState(StateDisconnected)
		return fmt.Errorf("connect to %s: %w", device.Name, err)
	}
	if err := c.waitForStatus(ctx, client); err != nil {
		_ = client.Close(false)
		c.setState(StateDisconnected)
		return fmt.Errorf("%s accepted the connection but never reported status: %w", device.Name, err)
	}

	volume := c.resume.Volume()
	if err := client.SetVolume(volume / 100); err != nil {
		c.logger.Warn("apply_volume_failed", slog.String("device", device.Name), slog.String("err", err.Error()))
	}

	c.mu.Lock()
	previous := c.client
	c.client = client
	c.device = device
	c.st = StateConnected
	c.mu.Unlock()
	if previous != nil {
		_ = previous.Close(false)
	}

	if status, err := client.GetStatus(); err == nil {
		c.recordStatus(status)
	}

	c.logger.Info("device_connected",
		slog.String("device", device.Name),
		slog.String("model", device.Model),
		slog.Float64("volume", volume))
	return nil
}

// waitForStatus polls until the device answers a status request, bounded
// by readyTimeout. A connected socket alone does not mean the receiver
// app is up yet.
func (c *Controller) waitForStatus(ctx context.Context, client adapters.CastClient) error {
	deadline := c.now().Add(c.readyTimeout)
	for {
		if _, err := client.GetStatus(); err == nil {
			return nil
		}
		if c.now().After(deadline) {
			return errors.New("timed out waiting for device status")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.readyPollEvery):
		}
	}
}

// Play loads the descriptor on the device. A nil descriptor replays the
// current one. One transient failure triggers a single reconnect and
// retry of the same load before the error surfaces.
func (c *Controller) Play(ctx context.Context, d *domain.MediaDescriptor) error {
	if d == nil {
		d = c.Current()
		if d == nil {
			return domain.ErrNoActivePlayback
		}
	}

	err := c.playOnce(ctx, d)
	if err == nil || !isTransientCastError(err) {
		return err
	}

	c.logger.Warn("play_retry_after_reconnect", slog.String("title", d.Title), slog.String("err", err.Error()))
	if rerr := c.Connect(ctx); rerr != nil {
		return rerr
	}
	return c.playOnce(ctx, d)
}

func (c *Controller) playOnce(ctx context.Context, d *domain.MediaDescriptor) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return domain.ErrNotConnected
	}

	startAt := 0.0
	if d.SupportsResume && !d.IsLive {
		startAt = c.resume.ResumeOffset(d.Title, d.Duration)
	}

	if err := client.Load(adapters.LoadRequest{
		MediaURL:  d.URL,
		MimeType:  d.MimeType,
		StartTime: startAt,
		Duration:  d.Duration,
		Live:      d.IsLive,
	}); err != nil {
		return fmt.Errorf("load %q: %w", d.Title, err)
	}

	if err := c.waitForActivePlayback(ctx, client); err != nil {
		return fmt.Errorf("%q never started: %w", d.Title, err)
	}

	// Live streams always run at x1 so playback cannot drift behind
	// realtime. The stored rate stays put for the next regular video.
	rate := c.resume.PlaybackRate()
	if d.IsLive {
		rate = 1.0
	}
	if err := client.SetPlaybackRate(rate); err != nil {
		c.logger.Warn("apply_rate_failed", slog.Float64("rate", rate), slog.String("err", err.Error()))
	}

	c.mu.Lock()
	descriptor := *d
	c.current = &descriptor
	c.st = StatePlaying
	c.mu.Unlock()

	c.logger.Info("playback_started",
		slog.String("title", d.Title),
		slog.Float64("start_at", startAt),
		slog.Bool("live", d.IsLive))
	return nil
}

// waitForActivePlayback polls until the device reports a state other
// than UNKNOWN or IDLE, bounded by activeTimeout.
func (c *Controller) waitForActivePlayback(ctx context.Context, client adapters.CastClient) error {
	deadline := c.now().Add(c.activeTimeout)
	for {
		status, err := client.GetStatus()
		if err == nil && status != nil && status.Active() {
			c.recordStatus(status)
			return nil
		}
		if c.now().After(deadline) {
			return errors.New("timed out waiting for active playback")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.activePollEvery):
		}
	}
}

// Seek jumps to an absolute position. Negative targets clamp to zero.
// Rejected unless media is loaded.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	client := c.client
	st := c.st
	c.mu.Unlock()

	if client == nil || (st != StatePlaying && st != StatePaused) {
		return domain.ErrNoActivePlayback
	}
	if seconds < 0 {
		seconds = 0
	}
	return client.Seek(seconds)
}

// Skip seeks relative to the last observed position.
func (c *Controller) Skip(delta float64) error {
	c.mu.Lock()
	position := c.lastStatus.CurrentTime
	c.mu.Unlock()
	return c.Seek(position + delta)
}

// SetVolume persists the clamped level first, then applies it to the
// device. A failed send is reported but the stored level is not rolled
// back; the device call maps percent to the 0..1 receiver scale.
func (c *Controller) SetVolume(volume float64) error {
	applied := c.resume.SetVolume(volume)

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return domain.ErrNotConnected
	}
	return client.SetVolume(applied / 100)
}

// SetPlaybackRate persists the clamped rate first, then applies it. A
// zero rate means "reset to normal speed".
func (c *Controller) SetPlaybackRate(rate float64) error {
	if rate == 0 {
		rate = state.DefaultPlaybackRate
	}
	if rate < minPlaybackRate {
		rate = minPlaybackRate
	}
	if rate > maxPlaybackRate {
		rate = maxPlaybackRate
	}
	c.resume.SetPlaybackRate(rate)

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return domain.ErrNotConnected
	}
	return client.SetPlaybackRate(rate)
}

// StartStatusLoop launches the background polling loop. Safe to call at
// most once; subsequent calls and calls after Close are no-ops.
func (c *Controller) StartStatusLoop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollCancel != nil || c.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})
	go c.runStatusLoop(ctx, c.pollDone)
}

func (c *Controller) runStatusLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.statusTick(ctx)
		}
	}
}

func (c *Controller) statusTick(ctx context.Context) {
	c.mu.Lock()
	client := c.client
	last := c.lastStatus
	c.mu.Unlock()
	if client == nil {
		return
	}

	// An idle Chromecast wakes its receiver app when asked for media
	// status, so the device round-trip is skipped until something plays.
	if last.Active() {
		status, err := client.GetStatus()
		if err != nil {
			c.logger.Warn("status_poll_failed", slog.String("err", err.Error()))
		} else {
			c.recordStatus(status)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.statusSettle):
		}
	}

	c.logger.Debug("status_summary", slog.String("summary", c.statusSummary()))
}

// recordStatus stores the observation, derives the session phase from
// the reported player state and feeds the resume history.
func (c *Controller) recordStatus(status *domain.StatusSnapshot) {
	if status == nil {
		return
	}

	c.mu.Lock()
	c.lastStatus = *status
	switch status.PlayerState {
	case domain.PlayerStatePlaying, domain.PlayerStateBuffering:
		if c.st == StateConnected || c.st == StatePlaying || c.st == StatePaused {
			c.st = StatePlaying
		}
	case domain.PlayerStatePaused:
		if c.st == StatePlaying || c.st == StatePaused {
			c.st = StatePaused
		}
	case domain.PlayerStateIdle:
		if c.st == StatePlaying || c.st == StatePaused {
			c.st = StateConnected
		}
	}
	c.mu.Unlock()

	c.resume.RecordProgress(status.Title, status.CurrentTime)
}

func (c *Controller) setState(st State) {
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()
}

// Close stops the polling loop, flushes the resume state and tears down
// the device connection, stopping whatever is playing. Idempotent.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		cancel := c.pollCancel
		done := c.pollDone
		c.closed = true
		c.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		if c.store != nil {
			if err := c.store.Save(c.resume); err != nil {
				c.logger.Error("state_save_failed", slog.String("err", err.Error()))
			}
		}

		c.mu.Lock()
		client := c.client
		c.client = nil
		c.st = StateDisconnected
		c.mu.Unlock()

		if client != nil {
			c.closeErr = client.Close(true)
		}
	})
	return c.closeErr
}

func isTransientCastError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrNotConnected) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"not connected",
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected eof",
		"i/o timeout",
		"use of closed network connection",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
