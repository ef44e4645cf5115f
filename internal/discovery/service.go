package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go2tv.app/go2tv/v2/devices"

	"castbot.app/castbot/internal/adapters"
	"castbot.app/castbot/internal/domain"
)

const (
	defaultTimeoutMS       = 2500
	fallbackTimeoutMS      = 12000
	defaultDelaySeconds    = 1
	maxPerAttemptTimeoutMS = 3000
)

// Service resolves the configured renderer by friendly name. Discovery is
// bounded: a short first pass, then one longer fallback pass before the
// lookup is reported as not found.
type Service struct {
	adapter adapters.Discovery
	loopCtx context.Context
	once    sync.Once
}

func NewService(adapter adapters.Discovery, loopCtx context.Context) *Service {
	if loopCtx == nil {
		loopCtx = context.Background()
	}

	return &Service{
		adapter: adapter,
		loopCtx: loopCtx,
	}
}

// Resolve finds the device whose friendly name matches friendlyName.
// Returns domain.ErrDeviceNotFound when no pass produced a match.
func (s *Service) Resolve(ctx context.Context, friendlyName string) (*domain.Device, error) {
	if s.adapter == nil {
		return nil, errors.New("discovery adapter is not configured")
	}
	friendlyName = strings.TrimSpace(friendlyName)
	if friendlyName == "" {
		return nil, fmt.Errorf("%w: friendly name is empty", domain.ErrDeviceNotFound)
	}

	s.once.Do(func() {
		s.adapter.StartChromecastDiscoveryLoop(s.loopCtx)
	})

	timeouts := []int{defaultTimeoutMS, fallbackTimeoutMS}
	for _, timeoutMS := range timeouts {
		found, err := s.listUntilTimeout(ctx, timeoutMS)
		if err != nil {
			return nil, err
		}
		if matched := matchFriendlyName(found, friendlyName); matched != nil {
			return matched, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, friendlyName)
}

func (s *Service) listUntilTimeout(ctx context.Context, timeoutMS int) ([]domain.Device, error) {
	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remainingMS := int(time.Until(deadline).Milliseconds())
		if remainingMS <= 0 {
			if lastErr == nil || errors.Is(lastErr, devices.ErrNoDeviceAvailable) {
				return nil, nil
			}
			return nil, lastErr
		}

		attemptTimeoutMS := remainingMS
		if attemptTimeoutMS > maxPerAttemptTimeoutMS {
			attemptTimeoutMS = maxPerAttemptTimeoutMS
		}

		loaded, err := s.adapter.LoadAllDevices(timeoutToDelaySeconds(attemptTimeoutMS))
		if err == nil {
			return normalizeDevices(loaded), nil
		}
		if !errors.Is(err, devices.ErrNoDeviceAvailable) {
			return nil, err
		}

		lastErr = err
	}
}

func timeoutToDelaySeconds(timeoutMS int) int {
	seconds := int(math.Ceil(float64(timeoutMS) / 1000.0))
	if seconds <= 0 {
		return defaultDelaySeconds
	}
	return seconds
}

func normalizeDevices(discovered []devices.Device) []domain.Device {
	result := make([]domain.Device, 0, len(discovered))
	for _, raw := range discovered {
		result = append(result, domain.Device{
			Name:    strings.TrimSpace(raw.Name),
			Model:   strings.TrimSpace(raw.Type),
			Address: strings.TrimSpace(raw.Addr),
		})
	}
	return result
}

func matchFriendlyName(found []domain.Device, target string) *domain.Device {
	for i := range found {
		if found[i].Name == target {
			return &found[i]
		}
	}
	for i := range found {
		if strings.EqualFold(found[i].Name, target) {
			return &found[i]
		}
	}
	return nil
}
