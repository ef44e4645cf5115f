package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html"

	"castbot.app/castbot/internal/domain"
)

// sniffLen covers every signature filetype knows about.
const sniffLen = 262

// Web finds directly embedded videos on a page: the first <video> element
// with a src, or the first <source> child when the element has none.
type Web struct {
	client *http.Client
}

func NewWeb(client *http.Client) *Web {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Web{client: client}
}

func (*Web) Name() string { return "web" }

func (*Web) SupportedDomainTokens() []string {
	return []string{"rumble.com", "vkplay.live"}
}

func (p *Web) Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("web: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web: fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrNoResult
	}

	page, err := scrapePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("web: parse page: %w", err)
	}
	if page.videoURL == "" {
		return nil, domain.ErrNoResult
	}

	videoURL := resolveAgainst(rawURL, page.videoURL)
	title := page.title
	if title == "" {
		title = rawURL
	}

	return &domain.MediaDescriptor{
		URL:          videoURL,
		OriginalURL:  rawURL,
		Title:        title,
		MimeType:     p.sniffMimeType(ctx, videoURL),
		ThumbnailURL: resolveAgainst(rawURL, page.poster),
	}, nil
}

type scrapedPage struct {
	title    string
	videoURL string
	poster   string
}

func scrapePage(r io.Reader) (scrapedPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return scrapedPage{}, err
	}

	var page scrapedPage
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.title == "" && n.FirstChild != nil {
					page.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "video":
				if page.poster == "" {
					page.poster = attrValue(n, "poster")
				}
				if page.videoURL == "" {
					page.videoURL = attrValue(n, "src")
				}
			case "source":
				if page.videoURL == "" {
					page.videoURL = attrValue(n, "src")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page, nil
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// sniffMimeType reads the first bytes of the stream and matches known
// container signatures. Sniffing failures fall back to video/mp4.
func (p *Web) sniffMimeType(ctx context.Context, videoURL string) string {
	const fallbackType = "video/mp4"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fallbackType
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffLen-1))

	resp, err := p.client.Do(req)
	if err != nil {
		return fallbackType
	}
	defer resp.Body.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(resp.Body, head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return fallbackType
	}
	return kind.MIME.Value
}

func resolveAgainst(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
