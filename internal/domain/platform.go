package domain

import "strings"

// Platform is the source platform a job's URL points at. It only picks
// which extraction logic the page-scraping methods apply; it never
// changes the acquisition fallback order.
type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformSora    Platform = "sora"
	PlatformRunway  Platform = "runway"
	PlatformYouTube Platform = "youtube"
	PlatformUnknown Platform = "unknown"
)

// ParsePlatform normalizes a caller-supplied platform hint. Anything
// unrecognized maps to PlatformUnknown rather than an error.
func ParsePlatform(hint string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(hint))) {
	case PlatformTikTok:
		return PlatformTikTok
	case PlatformSora:
		return PlatformSora
	case PlatformRunway:
		return PlatformRunway
	case PlatformYouTube:
		return PlatformYouTube
	default:
		return PlatformUnknown
	}
}

// DetectPlatform guesses the platform from the URL host. Used when the
// submitter provides no hint.
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(lower, "sora.com") || strings.Contains(lower, "sora.chatgpt.com"):
		return PlatformSora
	case strings.Contains(lower, "runwayml.com") || strings.Contains(lower, "app.runway"):
		return PlatformRunway
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	default:
		return PlatformUnknown
	}
}
