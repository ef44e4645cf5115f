// Package intent turns free-text inbound messages into orchestrator
// operations. Classification is a pure function so the dispatch policy can
// be tested exhaustively without a device.
package intent

import (
	"strings"

	"castbot.app/castbot/internal/textutil"
)

type Kind int

const (
	Unrecognized Kind = iota
	// PlayURL plays the URL found in the message.
	PlayURL
	// Replay restarts the message's URL; the controller skips reparsing
	// when it matches the currently playing source.
	Replay
	// SeekAbsolute seeks to Value seconds.
	SeekAbsolute
	// SeekRelative skips by Value seconds (may be negative).
	SeekRelative
	// SetPlaybackRate sets the rate to Value (0.5-2.0).
	SetPlaybackRate
	// SetVolume sets the volume to Value (clamped to 0-100 downstream).
	SetVolume
)

func (k Kind) String() string {
	switch k {
	case PlayURL:
		return "play_url"
	case Replay:
		return "replay"
	case SeekAbsolute:
		return "seek_absolute"
	case SeekRelative:
		return "seek_relative"
	case SetPlaybackRate:
		return "set_playback_rate"
	case SetVolume:
		return "set_volume"
	default:
		return "unrecognized"
	}
}

type Intent struct {
	Kind  Kind
	URL   string
	Value float64
}

// ReplayMarker is the canonical replay command for a URL. Listener replies
// offer it as a selectable option.
func ReplayMarker(url string) string {
	return "rp " + url
}

// Classify maps text to exactly one Intent. Precedence is fixed: replay
// marker, URL, clock timestamp, signed offset, then plain number. A plain
// number inside 0.5-2.0 is a playback rate, every other non-negative
// number is a volume; the overlap (a volume of exactly 2) is resolved by
// this range rule on purpose.
func Classify(text string) Intent {
	text = strings.TrimSpace(text)

	if url := textutil.FindURL(text); url != "" {
		if text == ReplayMarker(url) {
			return Intent{Kind: Replay, URL: url}
		}
		return Intent{Kind: PlayURL, URL: url}
	}

	if seconds, ok := textutil.TimestampToSeconds(text); ok {
		return Intent{Kind: SeekAbsolute, Value: seconds}
	}

	if delta, ok := textutil.SignedNumber(text); ok {
		return Intent{Kind: SeekRelative, Value: delta}
	}

	if number, ok := textutil.PlainNumber(text); ok {
		if number >= 0.5 && number <= 2.0 {
			return Intent{Kind: SetPlaybackRate, Value: number}
		}
		return Intent{Kind: SetVolume, Value: number}
	}

	return Intent{Kind: Unrecognized}
}
