package parser

import (
	"context"

	"castbot.app/castbot/internal/domain"
)

// Fallback treats a URL nothing else claimed as a directly playable
// stream. It never records resume history for its generic title.
type Fallback struct{}

func (Fallback) Name() string { return "fallback" }

func (Fallback) SupportedDomainTokens() []string { return nil }

func (Fallback) Parse(_ context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	return &domain.MediaDescriptor{
		URL:         rawURL,
		OriginalURL: rawURL,
		Title:       "Default Video",
		MimeType:    "video/mp4",
	}, nil
}
