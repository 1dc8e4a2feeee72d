package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"github.com/TobiSchelling/mediadash/internal/metrics"
)

const titleSuffix = " - YouTube"

var (
	errNoTitle = errors.New("page has no title")
	errOffline = errors.New("network disabled")
)

// Lookup is the outcome of a title resolution. Title is always usable:
// when Resolved is false it holds the fallback and Err says why.
type Lookup struct {
	Title    string
	Resolved bool
	Err      error
}

// TitleResolver fetches video page titles, memoizing every outcome by the
// exact URL for the lifetime of the resolver.
type TitleResolver struct {
	client    *http.Client
	userAgent string
	offline   bool

	mu    sync.Mutex
	cache map[string]Lookup
	group singleflight.Group
}

// NewTitleResolver creates a resolver. A nil client gets the default
// timeout; an empty userAgent gets DefaultUserAgent.
func NewTitleResolver(client *http.Client, userAgent string, offline bool) *TitleResolver {
	if client == nil {
		client = newHTTPClient(DefaultTimeout)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &TitleResolver{
		client:    client,
		userAgent: userAgent,
		offline:   offline,
		cache:     make(map[string]Lookup),
	}
}

// Resolve returns a display title for a video URL. It never fails.
func (r *TitleResolver) Resolve(ctx context.Context, rawURL string) string {
	return r.Lookup(ctx, rawURL).Title
}

// Lookup returns the memoized outcome for rawURL, fetching it on first use.
// Concurrent first lookups of the same URL share one request.
func (r *TitleResolver) Lookup(ctx context.Context, rawURL string) Lookup {
	if l, ok := r.cached(rawURL); ok {
		metrics.TitleLookups.WithLabelValues("hit").Inc()
		return l
	}

	v, _, _ := r.group.Do(rawURL, func() (any, error) {
		if l, ok := r.cached(rawURL); ok {
			return l, nil
		}
		// Outlive the caller so an aborted request cannot poison the cache.
		l := r.fetch(context.WithoutCancel(ctx), rawURL)
		r.mu.Lock()
		r.cache[rawURL] = l
		r.mu.Unlock()
		return l, nil
	})
	l := v.(Lookup)
	if l.Resolved {
		metrics.TitleLookups.WithLabelValues("resolved").Inc()
	} else {
		metrics.TitleLookups.WithLabelValues("fallback").Inc()
	}
	return l
}

// Len returns the number of memoized URLs.
func (r *TitleResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *TitleResolver) cached(rawURL string) (Lookup, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.cache[rawURL]
	return l, ok
}

func (r *TitleResolver) fetch(ctx context.Context, rawURL string) Lookup {
	fallback := Lookup{Title: FallbackTitle(rawURL)}
	if r.offline {
		fallback.Err = errOffline
		return fallback
	}

	title, err := r.fetchTitle(ctx, rawURL)
	if err != nil {
		slog.Debug("title lookup fell back", "url", rawURL, "err", err)
		fallback.Err = err
		return fallback
	}
	return Lookup{Title: title, Resolved: true}
}

func (r *TitleResolver) fetchTitle(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpError{code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	title := cleanTitle(doc.Find("title").First().Text())
	if title == "" {
		return "", errNoTitle
	}
	return title, nil
}

// cleanTitle strips the site suffix. Only trailing space is trimmed before
// the suffix match.
func cleanTitle(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	return strings.TrimSpace(strings.TrimSuffix(s, titleSuffix))
}
