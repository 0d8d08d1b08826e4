package youtube

import "testing"

func TestParseDurationSeconds(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"PT1H2M3S", 3723},
		{"PT5M", 300},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		// Multi-day tokens fold into the fallback.
		{"P1DT2H3M4S", FallbackDurationSeconds},
		// Malformed tokens fold into the fallback.
		{"", FallbackDurationSeconds},
		{"garbage", FallbackDurationSeconds},
		{"PTXS", FallbackDurationSeconds},
	}

	for _, tc := range cases {
		if got := ParseDurationSeconds(tc.raw); got != tc.want {
			t.Errorf("ParseDurationSeconds(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestIDFromURL(t *testing.T) {
	if got := ChannelIDFromURL("https://www.youtube.com/channel/UCabc123"); got != "UCabc123" {
		t.Errorf("ChannelIDFromURL = %q", got)
	}
	if got := VideoIDFromURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"); got != "dQw4w9WgXcQ" {
		t.Errorf("VideoIDFromURL = %q", got)
	}
}
