package domain

import "errors"

var (
	// ErrDeviceNotFound means discovery could not locate the configured
	// device within its bounded window. Fatal for that connect attempt.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNotConnected is a transient connectivity loss, for example when
	// another application took over the renderer. Play retries once on it.
	ErrNotConnected = errors.New("device not connected")

	// ErrNoResult is a parser soft miss: the URL is in the parser's
	// territory but yielded no playable media. The next parser in the
	// resolved chain is tried.
	ErrNoResult = errors.New("no playable media found")

	// ErrNoActivePlayback rejects seek and skip while nothing is playing.
	ErrNoActivePlayback = errors.New("no active playback")
)
