package fetch

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/clipwash/clipwash/internal/domain"
)

// Platform-specific patterns tried before the generic ones. Share pages
// differ mostly in where they stash the media URL: short-form social
// apps use a JSON play address, AI-video share pages use og:video or a
// bare CDN link.
var platformPatterns = map[domain.Platform][]*regexp.Regexp{
	domain.PlatformTikTok: {
		regexp.MustCompile(`"downloadAddr"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"playAddr"\s*:\s*"([^"]+)"`),
	},
	domain.PlatformSora: {
		regexp.MustCompile(`<meta[^>]+property="og:video(?::url)?"[^>]+content="([^"]+)"`),
		regexp.MustCompile(`"videoUrl"\s*:\s*"([^"]+)"`),
	},
	domain.PlatformRunway: {
		regexp.MustCompile(`"assetUrl"\s*:\s*"([^"]+\.mp4[^"]*)"`),
		regexp.MustCompile(`<meta[^>]+property="og:video(?::url)?"[^>]+content="([^"]+)"`),
	},
}

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<meta[^>]+property="og:video(?::url)?"[^>]+content="([^"]+)"`),
	regexp.MustCompile(`<video[^>]+src="([^"]+)"`),
	regexp.MustCompile(`<source[^>]+src="([^"]+)"`),
	regexp.MustCompile(`(https?://[^\s"'<>]+\.mp4[^\s"'<>]*)`),
}

// extractMediaURL digs the direct media URL out of a rendered share
// page. Platform patterns are tried first, then the generic ones.
func extractMediaURL(page string, platform domain.Platform) (string, error) {
	patterns := append(append([]*regexp.Regexp{}, platformPatterns[platform]...), genericPatterns...)

	for _, re := range patterns {
		groups := re.FindStringSubmatch(page)
		if len(groups) < 2 {
			continue
		}
		if url := cleanMediaURL(groups[1]); url != "" {
			return url, nil
		}
	}

	return "", fmt.Errorf("no media url found in page for platform %s", platform)
}

// cleanMediaURL undoes the escaping share pages apply to embedded URLs.
func cleanMediaURL(raw string) string {
	url := strings.ReplaceAll(raw, `\u0026`, "&")
	url = strings.ReplaceAll(url, `\/`, "/")
	url = html.UnescapeString(url)
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http") {
		return ""
	}
	return url
}
