package installer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conn-castle/wpsync/internal/artifact"
	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
	"github.com/conn-castle/wpsync/internal/upstream"
	"github.com/conn-castle/wpsync/internal/version"
)

// Fetcher downloads and extracts an artifact.
type Fetcher interface {
	Fetch(ctx context.Context, url string, hint string) (*artifact.Artifact, error)
}

// Pipeline downloads upstream packages and installs them into storage branches.
// The artifact is fetched before the checkout is touched, so download and extraction
// failures never mutate a branch.
type Pipeline struct {
	Fetcher   Fetcher
	Installer *Installer
	Patterns  guard.Patterns
	// SyncFrom is the branch whose locked paths are copied into each storage branch.
	SyncFrom       string
	DownloadBase   string
	FreePrefix     string
	LicensedPrefix string
	Push           bool
	Logger         *slog.Logger
}

// Outcome reports an installed version and the committed changes.
type Outcome struct {
	Version string
	Changes changes.ChangeSet
}

// DownloadWordPress installs version of the WordPress.org plugin slug into branch.
func (p *Pipeline) DownloadWordPress(ctx context.Context, slug string, ver string, branch string) (Outcome, error) {
	slug = strings.TrimSpace(slug)
	ver = strings.TrimSpace(ver)
	if slug == "" || ver == "" {
		return Outcome{}, syncerr.Configf(messages.InstallMissingSlugVersion)
	}
	url := upstream.WordPressDownloadURL(p.downloadBase(), slug, ver)
	art, err := p.Fetcher.Fetch(ctx, url, slug)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		_ = art.Close()
	}()

	cs, err := p.Installer.Install(ctx, Request{
		Branch:       branch,
		SyncFrom:     p.SyncFrom,
		ArtifactRoot: art.Root,
		Message:      fmt.Sprintf(messages.InstallWordPressMessageFmt, slug, ver),
		Tag:          releaseTag(p.FreePrefix, ver),
		Push:         p.Push,
	}, p.Patterns)
	return Outcome{Version: ver, Changes: cs}, err
}

// DownloadLicensed installs the archive at url into branch. The version is read from the
// extracted plugin or theme header.
func (p *Pipeline) DownloadLicensed(ctx context.Context, url string, branch string) (Outcome, error) {
	if strings.TrimSpace(url) == "" {
		return Outcome{}, syncerr.Configf(messages.InstallMissingURL)
	}
	art, err := p.Fetcher.Fetch(ctx, url, "")
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		_ = art.Close()
	}()

	ver, ok, err := version.FromDir(art.Root)
	if err != nil {
		return Outcome{}, &syncerr.FilesystemError{Op: "read", Path: art.Root, Err: err}
	}
	tag := ""
	if ok {
		tag = releaseTag(p.LicensedPrefix, ver)
	} else {
		ver = messages.UnknownVersion
		logger.OrDiscard(p.Logger).Warn("no version header found", "url", url)
	}

	cs, err := p.Installer.Install(ctx, Request{
		Branch:       branch,
		SyncFrom:     p.SyncFrom,
		ArtifactRoot: art.Root,
		Message:      fmt.Sprintf(messages.InstallLicensedMessageFmt, ver),
		Tag:          tag,
		Push:         p.Push,
	}, p.Patterns)
	return Outcome{Version: ver, Changes: cs}, err
}

func (p *Pipeline) downloadBase() string {
	if p.DownloadBase == "" {
		return upstream.DefaultWordPressDownloadBase
	}
	return p.DownloadBase
}

// releaseTag returns "<prefix>-v<version>", or "" when prefix is empty.
func releaseTag(prefix string, ver string) string {
	if prefix == "" {
		return ""
	}
	return fmt.Sprintf(messages.ReleaseTagFmt, prefix, ver)
}
