package classify

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds every outbound probe and title fetch.
	DefaultTimeout = 5 * time.Second
	// DefaultUserAgent keeps video hosts from rejecting us as a bot.
	DefaultUserAgent = "Mozilla/5.0"

	maxRedirects = 10
	maxBodyBytes = 2 << 20
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
