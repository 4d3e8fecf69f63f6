// Package upstream asks package sources for their latest version: the WordPress.org plugin
// directory and FunnelKit-style license servers. Checks never mutate anything and are never
// retried here; a failed check surfaces as a syncerr.UpstreamError.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

const (
	// DefaultWordPressAPIBase serves plugin metadata as <base>/<slug>.json.
	DefaultWordPressAPIBase = "https://api.wordpress.org/plugins/info/1.0"
	// DefaultWordPressDownloadBase serves plugin archives as <base>/<slug>.<version>.zip.
	DefaultWordPressDownloadBase = "https://downloads.wordpress.org/plugin"
	// LicenseUserAgent mimics a WordPress site, which license servers expect.
	LicenseUserAgent = "WordPress/6.4; https://example.com"

	maxResponseBytes = 4 << 20
)

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// VersionInfo is the answer of a version check.
type VersionInfo struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

// Client checks upstream sources.
type Client struct {
	HTTP                  *http.Client
	WordPressAPIBase      string
	WordPressDownloadBase string
}

// NewClient returns a Client using the public WordPress.org endpoints.
func NewClient() *Client {
	return &Client{
		HTTP:                  defaultHTTPClient,
		WordPressAPIBase:      DefaultWordPressAPIBase,
		WordPressDownloadBase: DefaultWordPressDownloadBase,
	}
}

// WordPressDownloadURL returns the archive URL of slug at version.
func WordPressDownloadURL(base string, slug string, version string) string {
	return fmt.Sprintf("%s/%s.%s.zip", strings.TrimRight(base, "/"), slug, version)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return defaultHTTPClient
	}
	return c.HTTP
}

// do sends req and returns the body of a 200 response. Transport failures and server
// errors are unreachable; 404 means the source has nothing to offer.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf(messages.UpstreamRequestFailedFmt, syncerr.ErrUpstreamUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf(messages.UpstreamNotFoundFmt, syncerr.ErrNoUpdateAvailable, redactURL(req.URL.String()), resp.Status)
	default:
		return nil, fmt.Errorf(messages.UpstreamStatusFmt, syncerr.ErrUpstreamUnreachable, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf(messages.UpstreamRequestFailedFmt, syncerr.ErrUpstreamUnreachable, err)
	}
	return body, nil
}

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf(messages.UpstreamCreateRequestFmt, err)
	}
	return req, nil
}

// isEmptyJSON reports whether body is a JSON null, false or empty document.
func isEmptyJSON(body []byte) bool {
	switch strings.TrimSpace(string(body)) {
	case "", "null", "false", "[]", "{}":
		return true
	}
	return false
}

// IsNoUpdate reports whether err means the source answered without a usable version.
func IsNoUpdate(err error) bool {
	return errors.Is(err, syncerr.ErrNoUpdateAvailable)
}
