package classify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/TobiSchelling/mediadash/internal/metrics"
)

// Probe is the outcome of a content-type check.
type Probe struct {
	IsImage     bool
	ContentType string
	Err         error
}

// ImageProber issues header-only requests to learn whether a URL serves an
// image. Outcomes, including failures, are memoized by exact URL.
type ImageProber struct {
	client    *http.Client
	userAgent string
	offline   bool

	mu    sync.Mutex
	cache map[string]Probe
	group singleflight.Group
}

// NewImageProber creates a prober with the same defaults as NewTitleResolver.
func NewImageProber(client *http.Client, userAgent string, offline bool) *ImageProber {
	if client == nil {
		client = newHTTPClient(DefaultTimeout)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ImageProber{
		client:    client,
		userAgent: userAgent,
		offline:   offline,
		cache:     make(map[string]Probe),
	}
}

// IsImage reports whether rawURL serves an image content type.
func (p *ImageProber) IsImage(ctx context.Context, rawURL string) bool {
	return p.Probe(ctx, rawURL).IsImage
}

// Probe returns the memoized outcome for rawURL.
func (p *ImageProber) Probe(ctx context.Context, rawURL string) Probe {
	if pr, ok := p.cached(rawURL); ok {
		metrics.ImageProbes.WithLabelValues("hit").Inc()
		return pr
	}

	v, _, _ := p.group.Do(rawURL, func() (any, error) {
		if pr, ok := p.cached(rawURL); ok {
			return pr, nil
		}
		pr := p.head(context.WithoutCancel(ctx), rawURL)
		p.mu.Lock()
		p.cache[rawURL] = pr
		p.mu.Unlock()
		return pr, nil
	})
	pr := v.(Probe)
	switch {
	case pr.Err != nil:
		metrics.ImageProbes.WithLabelValues("error").Inc()
	case pr.IsImage:
		metrics.ImageProbes.WithLabelValues("image").Inc()
	default:
		metrics.ImageProbes.WithLabelValues("other").Inc()
	}
	return pr
}

// Len returns the number of memoized URLs.
func (p *ImageProber) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

func (p *ImageProber) cached(rawURL string) (Probe, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.cache[rawURL]
	return pr, ok
}

func (p *ImageProber) head(ctx context.Context, rawURL string) Probe {
	if p.offline {
		return Probe{Err: errOffline}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return Probe{Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("image probe failed", "url", rawURL, "err", err)
		return Probe{Err: err}
	}
	resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	return Probe{IsImage: isImageType(ct), ContentType: ct}
}

func isImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
