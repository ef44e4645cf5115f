// Package state holds the persisted playback preferences: volume, playback
// rate and the per-title resume history. The in-memory value is shared
// between the command path and the status-polling loop, so every mutation
// goes through one mutex.
package state

import "sync"

const (
	DefaultPlaybackRate = 1.0
	DefaultVolume       = 100.0

	// FinishThreshold is the trailing window, in seconds, below which a
	// video counts as finished and is not worth resuming.
	FinishThreshold = 30.0
)

type persisted struct {
	PlaybackRate float64            `json:"playbackRate"`
	Volume       float64            `json:"volume"`
	History      map[string]float64 `json:"history"`
}

// Resume is the installation-wide resume state.
type Resume struct {
	mu   sync.Mutex
	data persisted
}

// NewResume returns a Resume with default preferences and empty history.
func NewResume() *Resume {
	return &Resume{data: persisted{
		PlaybackRate: DefaultPlaybackRate,
		Volume:       DefaultVolume,
		History:      map[string]float64{},
	}}
}

func (r *Resume) PlaybackRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.PlaybackRate
}

func (r *Resume) SetPlaybackRate(rate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.PlaybackRate = rate
}

func (r *Resume) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.Volume
}

// SetVolume stores the volume, clamped to the persisted invariant 0-100.
func (r *Resume) SetVolume(volume float64) float64 {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Volume = volume
	return volume
}

// RecordProgress stores the last-known offset for a title. Non-positive
// offsets and empty titles are ignored.
func (r *Resume) RecordProgress(title string, seconds float64) {
	if title == "" || seconds <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.History[title] = seconds
}

// Offset returns the recorded offset for a title, if any.
func (r *Resume) Offset(title string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seconds, ok := r.data.History[title]
	return seconds, ok
}

// ResumeOffset returns the offset playback should start at for a title.
// An offset is only meaningful while 0 < offset < duration-FinishThreshold;
// anything inside the trailing window counts as finished and restarts at 0.
// A zero duration (unknown) trusts any positive offset.
func (r *Resume) ResumeOffset(title string, duration float64) float64 {
	seconds, ok := r.Offset(title)
	if !ok || seconds <= 0 {
		return 0
	}
	if duration > 0 && seconds >= duration-FinishThreshold {
		return 0
	}
	return seconds
}

func (r *Resume) snapshot() persisted {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make(map[string]float64, len(r.data.History))
	for title, seconds := range r.data.History {
		history[title] = seconds
	}
	return persisted{
		PlaybackRate: r.data.PlaybackRate,
		Volume:       r.data.Volume,
		History:      history,
	}
}
