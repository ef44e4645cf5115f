package parser

import (
	"context"
	"errors"
	"testing"

	"castbot.app/castbot/internal/domain"
)

type fakeParser struct {
	name   string
	tokens []string
	parse  func(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error)
	calls  int
}

func (f *fakeParser) Name() string { return f.name }

func (f *fakeParser) SupportedDomainTokens() []string { return f.tokens }

func (f *fakeParser) Parse(ctx context.Context, rawURL string) (*domain.MediaDescriptor, error) {
	f.calls++
	if f.parse == nil {
		return nil, domain.ErrNoResult
	}
	return f.parse(ctx, rawURL)
}

func TestResolve_FirstRegisteredTokenWins(t *testing.T) {
	first := &fakeParser{name: "first", tokens: []string{"example.com"}}
	second := &fakeParser{name: "second", tokens: []string{"example.com/special"}}

	registry := NewRegistry(first, second)
	chain := registry.Resolve("https://example.com/special/video")

	if len(chain) != 1 || chain[0].Name() != "first" {
		t.Fatalf("expected only the first registered token's parser, got %d parsers", len(chain))
	}
}

func TestResolve_SharedTokenKeepsRegistrationOrder(t *testing.T) {
	video := &fakeParser{name: "video", tokens: []string{"youtube.com", "youtu.be"}}
	playlist := &fakeParser{name: "playlist", tokens: []string{"youtube.com", "list="}}

	registry := NewRegistry(video, playlist)
	chain := registry.Resolve("https://youtube.com/playlist?list=PL123")

	if len(chain) != 2 {
		t.Fatalf("expected 2 parsers on the shared token, got %d", len(chain))
	}
	if chain[0].Name() != "video" || chain[1].Name() != "playlist" {
		t.Fatalf("unexpected chain order: %s, %s", chain[0].Name(), chain[1].Name())
	}
}

func TestResolve_NoTokenMatchYieldsFallback(t *testing.T) {
	registry := NewRegistry(&fakeParser{name: "video", tokens: []string{"youtube.com"}})

	chain := registry.Resolve("https://example.com/video.mp4")
	if len(chain) != 1 || chain[0].Name() != "fallback" {
		t.Fatalf("expected the fallback parser, got %d parsers", len(chain))
	}
}

func TestParse_SoftMissFallsThroughToNextParser(t *testing.T) {
	want := &domain.MediaDescriptor{URL: "https://cdn.example.com/v.mp4", Title: "resolved"}
	miss := &fakeParser{name: "miss", tokens: []string{"youtube.com"}}
	hit := &fakeParser{
		name:   "hit",
		tokens: []string{"youtube.com"},
		parse: func(context.Context, string) (*domain.MediaDescriptor, error) {
			return want, nil
		},
	}

	registry := NewRegistry(miss, hit)
	got, err := registry.Parse(context.Background(), "https://youtube.com/playlist?list=PL123")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Title != "resolved" {
		t.Fatalf("unexpected descriptor: %+v", got)
	}
	if miss.calls != 1 || hit.calls != 1 {
		t.Fatalf("expected both parsers tried once, got %d and %d", miss.calls, hit.calls)
	}
}

func TestParse_NilDescriptorCountsAsSoftMiss(t *testing.T) {
	softNil := &fakeParser{
		name:   "soft-nil",
		tokens: []string{"youtube.com"},
		parse: func(context.Context, string) (*domain.MediaDescriptor, error) {
			return nil, nil
		},
	}

	registry := NewRegistry(softNil)
	_, err := registry.Parse(context.Background(), "https://youtube.com/watch?v=abc")

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Last != nil {
		t.Fatalf("soft misses must not be carried as the last error, got %v", exhausted.Last)
	}
}

func TestParse_ExhaustionCarriesLastHardError(t *testing.T) {
	hardErr := errors.New("invidious unreachable")
	failing := &fakeParser{
		name:   "failing",
		tokens: []string{"youtube.com"},
		parse: func(context.Context, string) (*domain.MediaDescriptor, error) {
			return nil, hardErr
		},
	}
	missing := &fakeParser{name: "missing", tokens: []string{"youtube.com"}}

	registry := NewRegistry(failing, missing)
	_, err := registry.Parse(context.Background(), "https://youtube.com/watch?v=abc")

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if !errors.Is(err, hardErr) {
		t.Fatalf("expected the hard error to be wrapped, got %v", err)
	}
}

func TestFallbackDescriptor(t *testing.T) {
	registry := NewRegistry()
	got, err := registry.Parse(context.Background(), "https://example.com/clip.mp4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got.URL != "https://example.com/clip.mp4" || got.OriginalURL != got.URL {
		t.Fatalf("unexpected URLs: %+v", got)
	}
	if got.Title != "Default Video" || got.MimeType != "video/mp4" {
		t.Fatalf("unexpected descriptor: %+v", got)
	}
	if got.SupportsResume {
		t.Fatal("fallback media must not record resume history")
	}
}
