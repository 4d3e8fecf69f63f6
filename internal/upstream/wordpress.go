package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

type wordPressInfo struct {
	Version string `json:"version"`
	Error   string `json:"error"`
}

// CheckWordPressOrg returns the latest version of a WordPress.org plugin and its archive URL.
func (c *Client) CheckWordPressOrg(ctx context.Context, slug string) (VersionInfo, error) {
	source := fmt.Sprintf(messages.UpstreamWordPressSourceFmt, slug)
	if strings.TrimSpace(slug) == "" {
		return VersionInfo{}, syncerr.Configf(messages.UpstreamMissingFieldFmt, "slug")
	}
	endpoint := fmt.Sprintf("%s/%s.json", strings.TrimRight(c.WordPressAPIBase, "/"), url.PathEscape(slug))
	req, err := newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: err}
	}
	if isEmptyJSON(body) {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: syncerr.ErrNoUpdateAvailable}
	}
	var info wordPressInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: fmt.Errorf(messages.UpstreamDecodeFmt, err)}
	}
	if info.Error != "" {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: fmt.Errorf(messages.UpstreamAPIErrorFmt, syncerr.ErrNoUpdateAvailable, info.Error)}
	}
	version := strings.TrimSpace(info.Version)
	if version == "" {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: fmt.Errorf(messages.UpstreamAPIErrorFmt, syncerr.ErrNoUpdateAvailable, messages.UpstreamNoVersion)}
	}
	return VersionInfo{
		Version:     version,
		DownloadURL: WordPressDownloadURL(c.WordPressDownloadBase, slug, version),
	}, nil
}
