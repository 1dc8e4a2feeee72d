package classify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// assetHost serves video pages on youtu.be/youtube.com and answers
// probes for everything else by file extension.
func assetHost(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.Host, "youtu"):
			fmt.Fprintf(w, "<title>Video %s - YouTube</title>", strings.TrimPrefix(r.URL.Path, "/"))
		case strings.HasSuffix(r.URL.Path, ".jpg"):
			w.Header().Set("Content-Type", "image/jpeg")
		default:
			w.Header().Set("Content-Type", "text/html")
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClassify(t *testing.T) {
	ts := assetHost(t)
	c := New(Options{Client: clientFor(t, ts)})
	ctx := context.Background()

	tests := []struct {
		ref   string
		kind  Kind
		title string
		embed string
	}{
		{"https://youtu.be/abc123", Video, "Video abc123", "https://youtube.com/embed/abc123"},
		{"https://example.com/pic.jpg", Image, "", ""},
		{"https://example.com/landing", Text, "https://example.com/landing", ""},
		{"Banner text", Text, "Banner text", ""},
		{"pic.jpg", Text, "pic.jpg", ""},
	}
	for _, tt := range tests {
		got := c.Classify(ctx, tt.ref)
		if got.Kind != tt.kind || got.DisplayTitle != tt.title || got.EmbedURL != tt.embed {
			t.Errorf("Classify(%q) = %+v, want kind=%s title=%q embed=%q",
				tt.ref, got, tt.kind, tt.title, tt.embed)
		}
	}
}

func TestClassifyVideoSkipsImageProbe(t *testing.T) {
	var heads atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		}
		fmt.Fprint(w, "<title>Clip</title>")
	}))
	defer ts.Close()

	c := New(Options{Client: clientFor(t, ts)})
	c.Classify(context.Background(), "https://www.youtube.com/watch?v=clip")
	if heads.Load() != 0 {
		t.Errorf("video references should not be probed, got %d HEAD requests", heads.Load())
	}
}

func TestClassifyNetworkFailureDegrades(t *testing.T) {
	c := New(Options{Client: refusedClient(t)})
	ctx := context.Background()

	video := c.Classify(ctx, "https://youtu.be/xyz")
	if video.Kind != Video || video.DisplayTitle != "xyz" {
		t.Errorf("expected video with fallback title, got %+v", video)
	}

	img := c.Classify(ctx, "https://example.com/pic.jpg")
	if img.Kind != Text || img.DisplayTitle != "https://example.com/pic.jpg" {
		t.Errorf("expected text fallback, got %+v", img)
	}
}

func TestClassifyOffline(t *testing.T) {
	ts := assetHost(t)
	c := New(Options{Client: clientFor(t, ts), Offline: true})
	ctx := context.Background()

	if got := c.Classify(ctx, "https://youtu.be/abc123"); got.Kind != Video || got.DisplayTitle != "abc123" {
		t.Errorf("expected offline video fallback, got %+v", got)
	}
	if got := c.Classify(ctx, "https://example.com/pic.jpg"); got.Kind != Text {
		t.Errorf("expected offline image to classify as text, got %+v", got)
	}
}
