// Package textutil holds the small text helpers shared by the intent
// classifier, the status renderer and the listener replies.
package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	timestampPattern = regexp.MustCompile(`^(?:(\d+):)?([0-5]?\d):([0-5]\d)$`)
	signedPattern    = regexp.MustCompile(`^[+-]\d+(?:\.\d+)?$`)
	plainPattern     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// FindURL returns the first http(s) URL in text, or "" when there is none.
func FindURL(text string) string {
	return urlPattern.FindString(text)
}

// TimestampToSeconds parses a clock-format timestamp, [HH:]MM:SS with
// minutes and seconds in 00-59.
func TimestampToSeconds(text string) (float64, bool) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}

	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])

	return float64(hours*3600 + minutes*60 + seconds), true
}

// SecondsToTimestamp formats seconds as HH:MM:SS. Negative input yields "".
func SecondsToTimestamp(seconds float64) string {
	if seconds < 0 {
		return ""
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// SignedNumber parses a number with a mandatory leading + or -.
func SignedNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if !signedPattern.MatchString(text) {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// PlainNumber parses an unsigned, sign-less floating point number.
func PlainNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if !plainPattern.MatchString(text) {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Percentage renders playback completion, clamped to 0%..100%. An unknown
// duration always reads 0%.
func Percentage(currentTime, duration float64) string {
	switch {
	case duration <= 0:
		return "0%"
	case currentTime >= duration:
		return "100%"
	default:
		return fmt.Sprintf("%.0f%%", currentTime/duration*100)
	}
}

// ProgressBar renders a fixed-width text progress bar with the completion
// percentage and elapsed/total time.
func ProgressBar(currentTime, duration float64, length int) string {
	if length <= 0 {
		length = 20
	}

	filled := 0
	formatted := SecondsToTimestamp(currentTime) + " / unknown"
	if duration > 0 {
		filled = int(float64(length) * currentTime / duration)
		if filled > length {
			filled = length
		}
		formatted = SecondsToTimestamp(currentTime) + " / " + SecondsToTimestamp(duration)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("-", length-filled)
	return fmt.Sprintf("|%s| %s %s", bar, Percentage(currentTime, duration), formatted)
}

// ShortenLongString keeps the head and tail of a long string and joins
// them with "...".
func ShortenLongString(long string, limit int) string {
	const postfix = "..."
	if long == "" || len(long) <= limit {
		return long
	}

	keep := (limit - len(postfix)) / 2
	if keep <= 0 {
		return postfix
	}
	return strings.TrimRight(long[:keep], " ") + postfix + long[len(long)-keep:]
}

// MakeLink wraps a label in an OSC 8 terminal hyperlink.
func MakeLink(url, label string) string {
	return "\x1b]8;;" + url + "\a" + label + "\x1b]8;;\a"
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes the characters Telegram's legacy Markdown mode
// treats as formatting.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
