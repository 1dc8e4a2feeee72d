package classify

import (
	"context"
	"net/http"
	"time"
)

// Options configures a Classifier.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Offline skips every network call: videos get fallback titles and no
	// URL is ever treated as an image.
	Offline bool
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Classifier classifies asset references, cheapest check first.
type Classifier struct {
	titles *TitleResolver
	images *ImageProber
}

// New creates a Classifier owning its own title and probe caches.
func New(opts Options) *Classifier {
	client := opts.Client
	if client == nil {
		client = newHTTPClient(opts.Timeout)
	}
	return &Classifier{
		titles: NewTitleResolver(client, opts.UserAgent, opts.Offline),
		images: NewImageProber(client, opts.UserAgent, opts.Offline),
	}
}

// Classify decides the media kind of ref. Network failures degrade the
// row to a fallback title or to Text; they are never returned.
func (c *Classifier) Classify(ctx context.Context, ref string) Result {
	if IsVideoRef(ref) {
		return Result{
			Kind:         Video,
			DisplayTitle: c.titles.Resolve(ctx, ref),
			EmbedURL:     EmbedURL(ref),
		}
	}
	if IsHTTP(ref) && c.images.IsImage(ctx, ref) {
		return Result{Kind: Image}
	}
	return Result{Kind: Text, DisplayTitle: ref}
}

// Titles exposes the title resolver.
func (c *Classifier) Titles() *TitleResolver {
	return c.titles
}

// Images exposes the image prober.
func (c *Classifier) Images() *ImageProber {
	return c.images
}
