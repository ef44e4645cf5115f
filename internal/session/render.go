package session

import (
	"fmt"
	"strings"

	"castbot.app/castbot/internal/domain"
	"castbot.app/castbot/internal/textutil"
)

const (
	progressBarWidth = 20
	contentLineLimit = 60
)

// statusSummary renders a compact multi-line picture of the session for
// the periodic log line: device, player state, content and progress.
func (c *Controller) statusSummary() string {
	c.mu.Lock()
	device := c.device
	status := c.lastStatus
	current := c.current
	st := c.st
	c.mu.Unlock()
	rate := c.resume.PlaybackRate()

	var b strings.Builder
	if device != nil {
		fmt.Fprintf(&b, "Device: %s (%s)\n", device.Name, device.Model)
	}
	fmt.Fprintf(&b, "Session: %s  Player: %s  x%g\n", st, status.PlayerState, rate)

	if current != nil {
		label := textutil.ShortenLongString(current.Title, contentLineLimit)
		fmt.Fprintf(&b, "Content: %s\n", textutil.MakeLink(current.OriginalURL, label))
	}
	b.WriteString(textutil.ProgressBar(status.CurrentTime, status.Duration, progressBarWidth))
	return b.String()
}

// nowPlayingText builds the Markdown reply sent after a successful play.
func nowPlayingText(d *domain.MediaDescriptor, volume, rate float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "__*%s*__\n\n", textutil.EscapeMarkdown(d.Title))
	fmt.Fprintf(&b, "\U0001F50A: *%g%%* \U0001F422: *x%g*", volume, rate)
	if d.Duration > 0 {
		fmt.Fprintf(&b, " ⏳: `%s`", textutil.SecondsToTimestamp(d.Duration))
	}
	b.WriteString("\n")

	for _, link := range d.Links {
		fmt.Fprintf(&b, "\n[%s](%s)", textutil.EscapeMarkdown(link.Label), link.URL)
	}
	return b.String()
}
