package content

import (
	"fmt"
	"strings"
	"testing"
)

func TestOptimizeForPlatform(t *testing.T) {
	tags := make([]string, 12)
	for i := range tags {
		tags[i] = fmt.Sprintf("#t%d", i)
	}
	c := GeneratedContent{Captions: Captions{Short: "s", Medium: "m", Long: "l"}, Hashtags: tags}

	tests := []struct {
		platform Platform
		caption  string
		tags     int
		max      int
	}{
		{PlatformInstagram, "s", 10, 100},
		{PlatformFacebook, "m", 5, 200},
		{PlatformTikTok, "s", 8, 100},
		{PlatformLinkedIn, "l", 3, 400},
		{"LinkedIn", "l", 3, 400},
		{"pinterest", "m", 12, 200},
	}
	for _, tc := range tests {
		t.Run(string(tc.platform), func(t *testing.T) {
			post := OptimizeForPlatform(c, tc.platform)
			if post.Caption != tc.caption || post.MaxLength != tc.max {
				t.Fatalf("post = %+v", post)
			}
			if got := len(strings.Fields(post.Hashtags)); got != tc.tags {
				t.Fatalf("hashtags = %d, want %d", got, tc.tags)
			}
		})
	}
}

func TestOptimizeForPlatformFewHashtags(t *testing.T) {
	post := OptimizeForPlatform(GeneratedContent{Hashtags: []string{"#a", "#b"}}, PlatformInstagram)
	if post.Hashtags != "#a #b" {
		t.Fatalf("Hashtags = %q", post.Hashtags)
	}
}
