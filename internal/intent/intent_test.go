package intent

import "testing"

func TestClassify_Precedence(t *testing.T) {
	cases := []struct {
		text  string
		want  Kind
		url   string
		value float64
	}{
		{text: "https://youtube.com/watch?v=abc", want: PlayURL, url: "https://youtube.com/watch?v=abc"},
		{text: "check this https://example.com/v.mp4 out", want: PlayURL, url: "https://example.com/v.mp4"},
		{text: "rp https://example.com/v.mp4", want: Replay, url: "https://example.com/v.mp4"},
		// Extra text disqualifies the replay marker.
		{text: "rp https://example.com/v.mp4 please", want: PlayURL, url: "https://example.com/v.mp4"},
		{text: "02:03", want: SeekAbsolute, value: 123},
		{text: "1:02:03", want: SeekAbsolute, value: 3723},
		{text: "+30", want: SeekRelative, value: 30},
		{text: "-15", want: SeekRelative, value: -15},
		{text: "+0.5", want: SeekRelative, value: 0.5},
		{text: "1", want: SetPlaybackRate, value: 1},
		{text: "0.5", want: SetPlaybackRate, value: 0.5},
		{text: "2", want: SetPlaybackRate, value: 2},
		{text: "1.25", want: SetPlaybackRate, value: 1.25},
		{text: "0", want: SetVolume, value: 0},
		{text: "75", want: SetVolume, value: 75},
		{text: "150", want: SetVolume, value: 150},
		{text: "0.4", want: SetVolume, value: 0.4},
		{text: "  75  ", want: SetVolume, value: 75},
		{text: "99:99", want: Unrecognized},
		{text: "hello there", want: Unrecognized},
		{text: "", want: Unrecognized},
	}

	for _, tc := range cases {
		got := Classify(tc.text)
		if got.Kind != tc.want {
			t.Fatalf("Classify(%q) kind = %s, want %s", tc.text, got.Kind, tc.want)
		}
		if got.URL != tc.url {
			t.Fatalf("Classify(%q) url = %q, want %q", tc.text, got.URL, tc.url)
		}
		if got.Value != tc.value {
			t.Fatalf("Classify(%q) value = %v, want %v", tc.text, got.Value, tc.value)
		}
	}
}

func TestClassify_TimestampBeatsNothingElse(t *testing.T) {
	// A message holding both a URL and a timestamp is a play command; the
	// URL check runs first.
	got := Classify("https://example.com/v.mp4 02:03")
	if got.Kind != PlayURL {
		t.Fatalf("expected play_url, got %s", got.Kind)
	}
}

func TestReplayMarkerRoundTrip(t *testing.T) {
	marker := ReplayMarker("https://example.com/v.mp4")
	got := Classify(marker)
	if got.Kind != Replay {
		t.Fatalf("expected replay, got %s", got.Kind)
	}
	if got.URL != "https://example.com/v.mp4" {
		t.Fatalf("unexpected url: %q", got.URL)
	}
}
