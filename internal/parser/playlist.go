package parser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/ytdlp/v2"

	"castbot.app/castbot/internal/domain"
)

// Playlist resolves a YouTube playlist URL to its first entry. It shares
// the "youtube.com" token with the YouTube parser so playlist pages fall
// through to it when the video parser misses.
type Playlist struct {
	youtube *YouTube
}

func NewPlaylist(youtube *YouTube) *Playlist {
	return &Playlist{youtube: youtube}
}

func (*Playlist) Name() string { return "playlist" }

func (*Playlist) SupportedDomainTokens() []string {
	return []string{"youtube.com", "list="}
}

func (p *Playlist) Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	playlistID := extractPlaylistID(rawURL)
	if playlistID == "" {
		return nil, domain.ErrNoResult
	}

	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("playlist: list %s: %w", playlistID, err)
	}
	if len(items) == 0 {
		return nil, domain.ErrNoResult
	}

	watchURL := "https://www.youtube.com/watch?v=" + items[0].VideoID
	descriptor, err := p.youtube.Parse(ctx, watchURL)
	if err != nil {
		return nil, err
	}

	// Replay of the playlist URL should resolve the playlist again.
	resolved := *descriptor
	resolved.OriginalURL = rawURL
	return &resolved, nil
}

func extractPlaylistID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return parsed.Query().Get("list")
}
