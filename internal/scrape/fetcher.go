// Package scrape is the outbound HTTP boundary to Telegram's public web
// preview. The rest of the system treats it as a fetch-by-path function:
// any non-200 or transport failure comes back as ErrUnavailable and is
// handled uniformly as "not found/unavailable".
package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable signals a failed or non-200 upstream response.
var ErrUnavailable = errors.New("upstream unavailable")

const userAgent = "TelegramMeAPI/1.0 (channel preview scraper)"

// Fetcher fetches a path from the upstream host and returns the raw HTML.
type Fetcher interface {
	Fetch(ctx context.Context, path, method string, params url.Values) (string, error)
}

// Client is the production Fetcher. A single instance is constructed at
// process start and shared: the embedded http.Client pools connections
// across all fetches with bounded concurrency toward the upstream.
type Client struct {
	host string
	http *http.Client
	log  zerolog.Logger
}

func NewClient(host string, timeout time.Duration, log zerolog.Logger) *Client {
	if host == "" {
		host = "t.me"
	}
	return &Client{
		host: host,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        200,
				MaxIdleConnsPerHost: 50,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     60 * time.Second,
			},
			// The web preview redirects non-public channels to the app
			// download page; following it would mask the 302.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log.With().Str("component", "scrape").Logger(),
	}
}

// Fetch performs one request against https://{host}/{path}. POST requests
// mimic the AJAX pagination calls: they carry X-Requested-With and receive
// the HTML fragment wrapped in a JSON string, which is unwrapped here.
func (c *Client) Fetch(ctx context.Context, path, method string, params url.Values) (string, error) {
	u := fmt.Sprintf("https://%s/%s", c.host, escapePath(path))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if method == http.MethodPost {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("fetch failed")
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("non-200 response")
		return "", ErrUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("read body failed")
		return "", ErrUnavailable
	}

	text := string(body)
	if method == http.MethodPost {
		var unwrapped string
		if err := json.Unmarshal(body, &unwrapped); err == nil {
			text = unwrapped
		}
	}
	if text == "" {
		return "", ErrUnavailable
	}
	return text, nil
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
