// Package classify decides how an asset reference should be displayed:
// as an embedded video, an image, or plain text.
package classify

import "strings"

// Kind is the media kind of an asset reference.
type Kind int

const (
	Text Kind = iota
	Video
	Image
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Image:
		return "image"
	default:
		return "text"
	}
}

// MarshalText lets Kind render as its name in JSON and templates.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the per-row classification handed to the renderer.
type Result struct {
	Kind Kind
	// DisplayTitle is the resolved title for videos, empty for images and
	// the reference itself for text.
	DisplayTitle string
	// EmbedURL is the player URL for videos, empty otherwise.
	EmbedURL string
}

// Video host markers. Either one in an http(s) reference makes it a video.
var videoMarkers = []string{"youtube.com", "youtu.be"}

// IsHTTP reports whether ref starts with an http or https scheme.
func IsHTTP(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsVideoRef reports whether ref points at a recognized video host.
func IsVideoRef(ref string) bool {
	if !IsHTTP(ref) {
		return false
	}
	for _, m := range videoMarkers {
		if strings.Contains(ref, m) {
			return true
		}
	}
	return false
}

// EmbedURL rewrites a watch or short link into its embeddable player URL.
func EmbedURL(ref string) string {
	embed := strings.ReplaceAll(ref, "watch?v=", "embed/")
	return strings.ReplaceAll(embed, "youtu.be/", "youtube.com/embed/")
}

// FallbackTitle is the substring after the final '/', or ref itself when it
// has none.
func FallbackTitle(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}
