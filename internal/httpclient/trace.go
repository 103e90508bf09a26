package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxLoggedBody caps the response body attached to trace logs
const maxLoggedBody = 2048

type traceTransport struct {
	base      http.RoundTripper
	name      string
	userAgent string
}

// New returns a client for outbound calls that sets the User-Agent and logs
// every exchange at trace level.
func New(name, userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &traceTransport{name: name, userAgent: userAgent},
	}
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	urlStr := redactURL(req.URL)
	start := time.Now()

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Trace().
			Str("client", t.name).
			Str("method", req.Method).
			Str("url", urlStr).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("HTTP request failed")
		return nil, err
	}

	event := log.Trace().
		Str("client", t.name).
		Str("method", req.Method).
		Str("url", urlStr).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start))

	if event.Enabled() {
		if head, err := peekBody(resp, maxLoggedBody); err != nil {
			event.Err(err)
		} else if len(head) > 0 {
			event.Str("body", string(head))
		}
	}
	event.Msg("HTTP response")

	return resp, nil
}

// peekBody returns up to n bytes of the body and leaves the body readable in full
func peekBody(resp *http.Response, n int64) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, n))
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), resp.Body), resp.Body}
	return head, err
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	redacted := *u
	redacted.User = nil
	if redacted.RawQuery == "" {
		return redacted.String()
	}

	q := redacted.Query()
	for key := range q {
		if isSensitiveQueryKey(key) {
			q.Set(key, "redacted")
		}
	}
	redacted.RawQuery = q.Encode()
	return redacted.String()
}

func isSensitiveQueryKey(key string) bool {
	switch strings.ToLower(key) {
	case "access_token", "token", "client_secret", "api_key", "apikey":
		return true
	default:
		return false
	}
}
