package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"castbot.app/castbot/internal/domain"
	"castbot.app/castbot/internal/intent"
	"castbot.app/castbot/internal/listener"
	"castbot.app/castbot/internal/state"
	"castbot.app/castbot/internal/textutil"
)

// HandleMessage classifies one inbound message and executes it. Every
// failed command turns into a reply on the originating channel; text
// that is not a command is dropped.
func (c *Controller) HandleMessage(ctx context.Context, from listener.Listener, msg listener.Inbound) {
	in := intent.Classify(msg.Text)
	c.logger.Debug("listener_message",
		slog.String("listener", from.Name()),
		slog.String("message_id", uuid.NewString()),
		slog.String("intent", in.Kind.String()))

	switch in.Kind {
	case intent.Replay:
		if current := c.Current(); current != nil && current.OriginalURL == in.URL {
			c.replyIfError(from, msg, c.Play(ctx, nil))
			return
		}
		// The marker outlived the session it was minted in; resolve the
		// URL from scratch.
		c.playFromURL(ctx, from, msg, in.URL)
	case intent.PlayURL:
		c.playFromURL(ctx, from, msg, in.URL)
	case intent.SeekAbsolute:
		c.replyIfError(from, msg, c.Seek(in.Value))
	case intent.SeekRelative:
		c.replyIfError(from, msg, c.Skip(in.Value))
	case intent.SetPlaybackRate:
		c.replyIfError(from, msg, c.SetPlaybackRate(in.Value))
	case intent.SetVolume:
		c.replyIfError(from, msg, c.SetVolume(in.Value))
	default:
		c.logger.Debug("message_ignored", slog.String("listener", from.Name()))
	}
}

func (c *Controller) playFromURL(ctx context.Context, from listener.Listener, msg listener.Inbound, rawURL string) {
	descriptor, err := c.parsers.Parse(ctx, rawURL)
	if err != nil {
		c.logger.Error("resolve_failed", slog.String("url", rawURL), slog.String("err", err.Error()))
		c.reply(from, msg, textutil.EscapeMarkdown(err.Error()), nil, nil)
		return
	}

	// Look before Play rewrites history at the new start offset.
	resumeAt, canResume := c.resumeSuggestion(descriptor)

	if err := c.Play(ctx, descriptor); err != nil {
		c.logger.Error("play_failed", slog.String("title", descriptor.Title), slog.String("err", err.Error()))
		c.reply(from, msg, textutil.EscapeMarkdown(err.Error()), nil, nil)
		return
	}

	text := nowPlayingText(descriptor, c.resume.Volume(), c.resume.PlaybackRate())
	var options []string
	if canResume {
		timecode := textutil.SecondsToTimestamp(resumeAt)
		text += fmt.Sprintf("\n_Stopped at_ `%s` _last time. Resume?_", timecode)
		options = append(options, timecode)
	}
	options = append(options, intent.ReplayMarker(descriptor.OriginalURL))
	c.reply(from, msg, text, options, descriptor)
}

// resumeSuggestion decides whether the reply should offer a jump back to
// where the viewer stopped. Only offsets deep enough into the media and
// clear of the final stretch are worth prompting for.
func (c *Controller) resumeSuggestion(d *domain.MediaDescriptor) (float64, bool) {
	if !d.SupportsResume || d.IsLive {
		return 0, false
	}
	offset, ok := c.resume.Offset(d.Title)
	if !ok || offset <= state.FinishThreshold {
		return 0, false
	}
	if d.Duration > 0 && offset > d.Duration-state.FinishThreshold {
		return 0, false
	}
	return offset, true
}

func (c *Controller) reply(from listener.Listener, msg listener.Inbound, text string, options []string, media *domain.MediaDescriptor) {
	err := from.Send(listener.Outbound{
		Text:    text,
		ReplyTo: msg.ReplyTo,
		Options: options,
		Media:   media,
	})
	if err != nil {
		c.logger.Warn("listener_send_failed", slog.String("listener", from.Name()), slog.String("err", err.Error()))
	}
}

func (c *Controller) replyIfError(from listener.Listener, msg listener.Inbound, err error) {
	if err == nil {
		return
	}
	c.reply(from, msg, textutil.EscapeMarkdown(err.Error()), nil, nil)
}
