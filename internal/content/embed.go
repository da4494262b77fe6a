package content

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	driveFileID  = regexp.MustCompile(`/d/([^/]+)`)
	driveQueryID = regexp.MustCompile(`id=([^&]+)`)
)

// EmbedURL turns a share link into a URL that can be placed in an iframe.
// Unrecognised links are returned unchanged.
func EmbedURL(videoURL string) string {
	switch {
	case strings.Contains(videoURL, "youtube.com/watch"):
		u, err := url.Parse(videoURL)
		if err != nil {
			return videoURL
		}
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
		return videoURL

	case strings.Contains(videoURL, "youtu.be/"):
		id := afterMarker(videoURL, "youtu.be/")
		return "https://www.youtube.com/embed/" + id

	case strings.Contains(videoURL, "vimeo.com/"):
		id := afterMarker(videoURL, "vimeo.com/")
		return "https://player.vimeo.com/video/" + id

	case strings.Contains(videoURL, "drive.google.com"):
		m := driveFileID.FindStringSubmatch(videoURL)
		if m == nil {
			m = driveQueryID.FindStringSubmatch(videoURL)
		}
		if m != nil {
			return "https://drive.google.com/file/d/" + m[1] + "/preview"
		}
		return videoURL
	}

	return videoURL
}

// DetectPlatform guesses the hosting platform from a share link.
func DetectPlatform(videoURL string) Platform {
	lower := strings.ToLower(videoURL)
	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "vimeo.com"):
		return PlatformVimeo
	case strings.Contains(lower, "azure") || strings.Contains(lower, "microsoftstream.com"):
		return PlatformAzure
	}
	return PlatformDirect
}

// afterMarker returns the text after marker up to the query string. Fragments are kept.
func afterMarker(s, marker string) string {
	rest := s[strings.Index(s, marker)+len(marker):]
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
