// Package artifact downloads package archives and unpacks them into a directory tree
// ready to be installed into a branch.
package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

const (
	// DefaultMaxBytes caps a single download.
	DefaultMaxBytes = int64(200 * 1024 * 1024)
	// DefaultTimeout bounds a single download.
	DefaultTimeout = 2 * time.Minute
)

var osCreateTemp = os.CreateTemp

// Artifact is an extracted package. Root is the package root inside the extraction
// directory; Close removes everything.
type Artifact struct {
	Root string
	dir  string
}

// Close removes the extraction directory.
func (a *Artifact) Close() error {
	if a == nil || a.dir == "" {
		return nil
	}
	return os.RemoveAll(a.dir)
}

// Fetcher downloads and extracts archives.
type Fetcher struct {
	HTTP     *http.Client
	MaxBytes int64
	// TempDir holds downloads and extractions; empty means the system default.
	TempDir  string
	Progress io.Writer
	Logger   *slog.Logger
}

// NewFetcher returns a Fetcher with the default size cap and timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTP:     &http.Client{Timeout: DefaultTimeout},
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch downloads the zip archive at rawURL and extracts it. hint names the directory
// expected to hold the package, typically the plugin slug.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, hint string) (*Artifact, error) {
	defer logger.Timed(f.Logger, "fetch", "url", redact(rawURL))()
	if f.Progress != nil {
		_, _ = fmt.Fprintf(f.Progress, messages.FetchDownloadingFmt, redact(rawURL))
	}

	archive, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.Remove(archive)
	}()

	dir, err := os.MkdirTemp(f.TempDir, "wpsync-artifact-*")
	if err != nil {
		return nil, &syncerr.FilesystemError{Op: "extract", Path: f.TempDir, Err: err}
	}
	root, err := Extract(archive, dir, hint)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &Artifact{Root: root, dir: dir}, nil
}

// download writes the response body to a temp file and returns its path.
func (f *Fetcher) download(ctx context.Context, rawURL string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fail := func(err error) error {
		return &syncerr.FetchError{URL: redact(rawURL), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fail(fmt.Errorf(messages.FetchCreateRequestFmt, err))
	}
	client := f.HTTP
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fail(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fail(fmt.Errorf(messages.FetchStatusFmt, resp.Status))
	}

	tmp, err := osCreateTemp(f.TempDir, "wpsync-download-*.zip")
	if err != nil {
		return "", fail(fmt.Errorf(messages.FetchTempFileFmt, err))
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(name)
		}
	}()

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	written, err := io.Copy(tmp, io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		_ = tmp.Close()
		return "", fail(fmt.Errorf(messages.FetchWriteFmt, err))
	}
	if written > maxBytes {
		_ = tmp.Close()
		return "", fail(fmt.Errorf(messages.FetchTooLargeFmt, maxBytes))
	}
	if err := tmp.Close(); err != nil {
		return "", fail(fmt.Errorf(messages.FetchWriteFmt, err))
	}
	committed = true
	return name, nil
}

// redact drops query strings and credentials, which often carry signatures.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
