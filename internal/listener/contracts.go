// Package listener defines the bidirectional messaging channel the
// orchestrator consumes. Concrete channels (Telegram, ntfy) live in
// subpackages; the session controller only sees these contracts.
package listener

import (
	"context"

	"castbot.app/castbot/internal/domain"
)

// Inbound is one received message. ReplyTo is channel-specific context
// carried back verbatim in the reply.
type Inbound struct {
	Text    string
	ReplyTo any
}

// Outbound is a reply. Options, when present, are selectable choices the
// channel may render as buttons; sending any option back as a plain
// message must be equivalent to typing it.
type Outbound struct {
	Text    string
	ReplyTo any
	Options []string
	Media   *domain.MediaDescriptor
}

// Handler processes one inbound message to completion. A channel delivers
// its own messages serially, but handlers from different channels may run
// concurrently against the same session.
type Handler func(ctx context.Context, from Listener, msg Inbound)

// Listener is a two-way messaging channel.
type Listener interface {
	Name() string
	// Start blocks, delivering messages to handle until ctx is done.
	Start(ctx context.Context, handle Handler) error
	Send(msg Outbound) error
}
