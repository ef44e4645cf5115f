package textutil

import "testing"

func TestFindURL(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{text: "https://example.com/v.mp4", want: "https://example.com/v.mp4"},
		{text: "watch http://example.com now", want: "http://example.com"},
		{text: "ftp://example.com", want: ""},
		{text: "no links here", want: ""},
	}
	for _, tc := range cases {
		if got := FindURL(tc.text); got != tc.want {
			t.Fatalf("FindURL(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestTimestampToSeconds(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{text: "02:03", want: 123, ok: true},
		{text: "2:03", want: 123, ok: true},
		{text: "1:02:03", want: 3723, ok: true},
		{text: "00:00", want: 0, ok: true},
		{text: "99:99", ok: false},
		{text: "1:2:3", ok: false},
		{text: "123", ok: false},
	}
	for _, tc := range cases {
		got, ok := TimestampToSeconds(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("TimestampToSeconds(%q) = %v, %v; want %v, %v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSecondsToTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{seconds: 0, want: "00:00:00"},
		{seconds: 123, want: "00:02:03"},
		{seconds: 3723.9, want: "01:02:03"},
		{seconds: -1, want: ""},
	}
	for _, tc := range cases {
		if got := SecondsToTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("SecondsToTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		current  float64
		duration float64
		want     string
	}{
		{current: 50, duration: 200, want: "25%"},
		{current: 250, duration: 200, want: "100%"},
		{current: 50, duration: 0, want: "0%"},
	}
	for _, tc := range cases {
		if got := Percentage(tc.current, tc.duration); got != tc.want {
			t.Fatalf("Percentage(%v, %v) = %q, want %q", tc.current, tc.duration, got, tc.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	got := ProgressBar(60, 120, 10)
	want := "|█████-----| 50% 00:01:00 / 00:02:00"
	if got != want {
		t.Fatalf("ProgressBar = %q, want %q", got, want)
	}

	unknown := ProgressBar(60, 0, 10)
	wantUnknown := "|----------| 0% 00:01:00 / unknown"
	if unknown != wantUnknown {
		t.Fatalf("ProgressBar (no duration) = %q, want %q", unknown, wantUnknown)
	}
}

func TestShortenLongString(t *testing.T) {
	if got := ShortenLongString("short", 20); got != "short" {
		t.Fatalf("expected short strings untouched, got %q", got)
	}

	long := "abcdefghijklmnopqrstuvwxyz"
	got := ShortenLongString(long, 13)
	if got != "abcde...vwxyz" {
		t.Fatalf("ShortenLongString = %q", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := EscapeMarkdown("a_b*c`d[e")
	want := "a\\_b\\*c\\`d\\[e"
	if got != want {
		t.Fatalf("EscapeMarkdown = %q, want %q", got, want)
	}
}
