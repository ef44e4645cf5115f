// Package ntfy adapts an ntfy.sh topic into a listener channel. Inbound
// messages arrive over the JSON streaming endpoint; replies are plain
// POSTs to the topic. ntfy has no buttons, so options are appended to
// the reply text for copy-pasting.
package ntfy

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"castbot.app/castbot/internal/listener"
)

const reconnectDelay = 5 * time.Second

// Scanner buffer for oversized JSON lines; the stream occasionally
// carries large attachment events.
const maxLineBytes = 256 * 1024

type Listener struct {
	server string
	topic  string
	client *http.Client
	logger *slog.Logger
}

func New(server, topic string, client *http.Client, logger *slog.Logger) *Listener {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		server: strings.TrimRight(server, "/"),
		topic:  topic,
		client: client,
		logger: logger,
	}
}

func (*Listener) Name() string { return "ntfy" }

// Start consumes the streaming endpoint until ctx is done, reconnecting
// after stream failures.
func (l *Listener) Start(ctx context.Context, handle listener.Handler) error {
	for {
		if err := l.stream(ctx, handle); err != nil && ctx.Err() == nil {
			l.logger.Warn("ntfy_stream_failed", slog.String("err", err.Error()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) stream(ctx context.Context, handle listener.Handler) error {
	endpoint := fmt.Sprintf("%s/%s/json", l.server, l.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if text, ok := decodeEvent(scanner.Bytes()); ok {
			handle(ctx, l, listener.Inbound{Text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// decodeEvent extracts the message text from one stream line. Keepalive
// and open events are dropped.
func decodeEvent(line []byte) (string, bool) {
	event, err := jsonparser.GetString(line, "event")
	if err != nil || event != "message" {
		return "", false
	}
	text, err := jsonparser.GetString(line, "message")
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}

func (l *Listener) Send(msg listener.Outbound) error {
	text := msg.Text
	if len(msg.Options) > 0 {
		text += "\n\n" + strings.Join(msg.Options, "\n")
	}

	endpoint := fmt.Sprintf("%s/%s", l.server, l.topic)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("ntfy: build publish request: %w", err)
	}
	if msg.Media != nil {
		if msg.Media.Title != "" {
			req.Header.Set("Title", msg.Media.Title)
		}
		if msg.Media.ThumbnailURL != "" {
			req.Header.Set("Attach", msg.Media.ThumbnailURL)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy: publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy: publish returned status %d", resp.StatusCode)
	}
	return nil
}

var _ listener.Listener = (*Listener)(nil)
