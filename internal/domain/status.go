package domain

// Player states as reported by the cast device.
const (
	PlayerStateUnknown   = "UNKNOWN"
	PlayerStateIdle      = "IDLE"
	PlayerStateBuffering = "BUFFERING"
	PlayerStatePlaying   = "PLAYING"
	PlayerStatePaused    = "PAUSED"
)

// StatusSnapshot is a point-in-time view of device playback state.
type StatusSnapshot struct {
	PlayerState string
	// CurrentTime is the playback position in seconds.
	CurrentTime float64
	// Duration in seconds, zero when unknown or live.
	Duration float64
	// VolumeLevel is the device volume, 0.0 to 1.0.
	VolumeLevel float64
	Title       string
}

// Active reports whether the snapshot describes a session worth polling.
// Polling an idle device can spuriously wake the renderer application.
func (s StatusSnapshot) Active() bool {
	switch s.PlayerState {
	case "", PlayerStateUnknown, PlayerStateIdle:
		return false
	}
	return true
}
