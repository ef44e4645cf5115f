package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"castbot.app/castbot/internal/domain"
)

const defaultInvidiousHost = "https://yewtu.be"

// YouTube resolves YouTube and Invidious-frontend URLs through the
// Invidious video API, picking the highest-bitrate muxed rendition. Live
// broadcasts resolve to the HLS manifest at rate-neutral playback.
type YouTube struct {
	client  *http.Client
	apiHost string
}

func NewYouTube(client *http.Client) *YouTube {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &YouTube{client: client, apiHost: defaultInvidiousHost}
}

func (*YouTube) Name() string { return "youtube" }

func (*YouTube) SupportedDomainTokens() []string {
	return []string{"youtube.com", "youtu.be", "yewtu.be", "/watch?v="}
}

func (p *YouTube) Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	videoID := extractVideoID(rawURL)
	if videoID == "" {
		return nil, domain.ErrNoResult
	}

	body, err := p.fetchVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, domain.ErrNoResult
	}

	title, err := jsonparser.GetString(body, "title")
	if err != nil {
		return nil, fmt.Errorf("youtube: missing title for %s: %w", videoID, err)
	}
	liveNow, _ := jsonparser.GetBoolean(body, "liveNow")
	lengthSeconds, _ := jsonparser.GetInt(body, "lengthSeconds")
	thumbnailURL, _ := jsonparser.GetString(body, "videoThumbnails", "[0]", "url")

	var links []domain.Link
	if authorURL, err := jsonparser.GetString(body, "authorUrl"); err == nil && authorURL != "" {
		links = append(links, domain.Link{Label: "Channel", URL: "https://www.youtube.com" + authorURL})
	}

	if liveNow {
		hlsURL, err := jsonparser.GetString(body, "hlsUrl")
		if err != nil || hlsURL == "" {
			return nil, domain.ErrNoResult
		}
		return &domain.MediaDescriptor{
			URL:            hlsURL,
			OriginalURL:    rawURL,
			Title:          "[Live] " + title,
			MimeType:       "application/x-mpegURL",
			ThumbnailURL:   thumbnailURL,
			SupportsResume: false,
			IsLive:         true,
			Links:          links,
		}, nil
	}

	stream := bestFormatStream(body)
	if stream.url == "" {
		return nil, domain.ErrNoResult
	}

	return &domain.MediaDescriptor{
		URL:            stream.url,
		OriginalURL:    rawURL,
		Title:          fmt.Sprintf("[%s] %s", stream.quality, title),
		MimeType:       stream.mimeType,
		ThumbnailURL:   thumbnailURL,
		Duration:       float64(lengthSeconds),
		SupportsResume: true,
		IsLive:         lengthSeconds == 0,
		Links:          links,
	}, nil
}

// fetchVideo queries the Invidious API. A nil, nil return is a soft miss
// (unavailable or unextractable video); errors are hard failures.
func (p *YouTube) fetchVideo(ctx context.Context, videoID string) ([]byte, error) {
	endpoint := p.apiHost + "/api/v1/videos/" + url.PathEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: query %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube: read response for %s: %w", videoID, err)
	}
	return body, nil
}

type formatStream struct {
	url      string
	mimeType string
	quality  string
	bitrate  int
}

// bestFormatStream picks the highest-bitrate muxed stream rendition.
func bestFormatStream(body []byte) formatStream {
	var best formatStream
	_, _ = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		streamURL, err := jsonparser.GetString(value, "url")
		if err != nil || streamURL == "" {
			return
		}

		bitrate := 0
		if raw, err := jsonparser.GetString(value, "bitrate"); err == nil {
			bitrate, _ = strconv.Atoi(raw)
		} else if n, err := jsonparser.GetInt(value, "bitrate"); err == nil {
			bitrate = int(n)
		}
		if best.url != "" && bitrate <= best.bitrate {
			return
		}

		mimeType, _ := jsonparser.GetString(value, "type")
		if idx := strings.Index(mimeType, ";"); idx > 0 {
			mimeType = strings.TrimSpace(mimeType[:idx])
		}
		if mimeType == "" {
			mimeType = "video/mp4"
		}
		quality, _ := jsonparser.GetString(value, "qualityLabel")
		if quality == "" {
			quality = "unknown"
		}

		best = formatStream{url: streamURL, mimeType: mimeType, quality: quality, bitrate: bitrate}
	}, "formatStreams")
	return best
}

// extractVideoID pulls the video id out of watch, short-link and
// latest_version URL shapes, regardless of the frontend host.
func extractVideoID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	if strings.Contains(parsed.Host, "youtu.be") {
		return strings.Trim(parsed.Path, "/")
	}
	if id := parsed.Query().Get("v"); id != "" {
		return id
	}
	if strings.HasPrefix(parsed.Path, "/latest_version") {
		return parsed.Query().Get("id")
	}
	return ""
}
