// Package parser resolves raw URLs into playable media descriptors via an
// ordered registry of site-specific extractors with a shared fallback.
package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"castbot.app/castbot/internal/domain"
)

// Parser turns a source URL into a media descriptor for one site family.
//
// Parse distinguishes a soft miss (nil descriptor or domain.ErrNoResult:
// try the next parser in the chain) from a hard failure (network or
// extraction error: remembered and surfaced once the chain is exhausted).
type Parser interface {
	Name() string
	SupportedDomainTokens() []string
	Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error)
}

// ExhaustedError reports that every parser in the resolved chain failed or
// missed. It wraps the last hard failure when there was one.
type ExhaustedError struct {
	URL  string
	Last error
}

func (e *ExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("no parser produced a playable result for %s: %v", e.URL, e.Last)
	}
	return fmt.Sprintf("no parser produced a playable result for %s", e.URL)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Registry maps domain tokens to the parsers claiming them. Registration
// order defines fallback priority among parsers sharing a token, and the
// order in which tokens are matched against a URL.
type Registry struct {
	tokenOrder []string
	byToken    map[string][]Parser
	fallback   Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{
		byToken:  map[string][]Parser{},
		fallback: Fallback{},
	}
	for _, p := range parsers {
		for _, token := range p.SupportedDomainTokens() {
			if _, seen := r.byToken[token]; !seen {
				r.tokenOrder = append(r.tokenOrder, token)
			}
			r.byToken[token] = append(r.byToken[token], p)
		}
	}
	return r
}

// Resolve returns the parser chain for a URL. Tokens are matched as
// verbatim substrings in first-registered order; the first matching token
// yields every parser registered for it, so near-duplicate domain
// spellings share one fallback chain. No match yields the fallback parser.
func (r *Registry) Resolve(rawURL string) []Parser {
	for _, token := range r.tokenOrder {
		if strings.Contains(rawURL, token) {
			return append([]Parser{}, r.byToken[token]...)
		}
	}
	return []Parser{r.fallback}
}

// Parse runs the resolved chain in order until a parser yields a
// descriptor. Soft misses move on silently; the last hard failure is
// carried in the ExhaustedError when nothing matched.
func (r *Registry) Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	var lastErr error
	for _, p := range r.Resolve(rawURL) {
		descriptor, err := p.Parse(ctx, rawURL)
		if err != nil {
			if !errors.Is(err, domain.ErrNoResult) {
				lastErr = err
			}
			continue
		}
		if descriptor == nil {
			continue
		}
		return descriptor, nil
	}
	return nil, &ExhaustedError{URL: rawURL, Last: lastErr}
}

// NewDefaultRegistry wires the standard parser set in priority order.
func NewDefaultRegistry(client *http.Client) *Registry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	youtube := NewYouTube(client)
	return NewRegistry(youtube, NewPlaylist(youtube), NewWeb(client))
}

// DefaultHTTPClient returns the retrying HTTP client parsers share.
func DefaultHTTPClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return rc.StandardClient()
}
