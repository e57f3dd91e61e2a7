package content

import "strings"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
)

// PlatformPost is copy trimmed to one network's conventions.
type PlatformPost struct {
	Platform  Platform `json:"platform"`
	Caption   string   `json:"caption"`
	Hashtags  string   `json:"hashtags"`
	MaxLength int      `json:"max_length"`
}

// OptimizeForPlatform picks the caption length and hashtag count a platform
// favours. Unknown platforms get the medium caption and every hashtag.
func OptimizeForPlatform(c GeneratedContent, platform Platform) PlatformPost {
	caption, tags, maxLen := c.Captions.Medium, len(c.Hashtags), 200
	switch Platform(strings.ToLower(string(platform))) {
	case PlatformInstagram:
		caption, tags, maxLen = c.Captions.Short, 10, 100
	case PlatformFacebook:
		caption, tags, maxLen = c.Captions.Medium, 5, 200
	case PlatformTikTok:
		caption, tags, maxLen = c.Captions.Short, 8, 100
	case PlatformLinkedIn:
		caption, tags, maxLen = c.Captions.Long, 3, 400
	}
	if tags > len(c.Hashtags) {
		tags = len(c.Hashtags)
	}
	return PlatformPost{
		Platform:  platform,
		Caption:   caption,
		Hashtags:  strings.Join(c.Hashtags[:tags], " "),
		MaxLength: maxLen,
	}
}
