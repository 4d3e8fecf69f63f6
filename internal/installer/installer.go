// Package installer installs an extracted artifact into a storage branch: it syncs the
// locked paths from the target branch, replaces the tree, commits, tags and pushes.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/replace"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// Store is the branch store the installer works through.
type Store interface {
	Root() string
	Checkout(ctx context.Context, branch string) error
	Status(ctx context.Context) (changes.ChangeSet, error)
	SyncPaths(ctx context.Context, from string, patterns guard.Patterns) ([]string, error)
	CommitIfChanged(ctx context.Context, message string) (changes.ChangeSet, error)
	CreateTag(ctx context.Context, tag string) (bool, error)
	Push(ctx context.Context, branch string) error
}

// Request describes one install.
type Request struct {
	// Branch is the storage branch; it is created as an orphan when missing.
	Branch string
	// SyncFrom is the branch whose locked paths are copied in first. Empty skips the sync.
	SyncFrom     string
	ArtifactRoot string
	Message      string
	// Tag is created when the install commits something.
	Tag  string
	Push bool
}

// Validate rejects requests that cannot run.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Branch) == "" {
		return syncerr.Configf(messages.InstallMissingBranch)
	}
	if strings.TrimSpace(r.ArtifactRoot) == "" {
		return syncerr.Configf(messages.InstallMissingArtifact)
	}
	if strings.TrimSpace(r.Message) == "" {
		return syncerr.Configf(messages.InstallMissingMessage)
	}
	return nil
}

// Installer runs installs against one checkout.
type Installer struct {
	Store  Store
	Logger *slog.Logger
}

// Install checks out req.Branch, syncs the locked paths from req.SyncFrom, replaces the
// tree with the artifact and commits. The returned ChangeSet is what the install commit
// holds; it is empty when the artifact matches the branch.
func (i *Installer) Install(ctx context.Context, req Request, patterns guard.Patterns) (changes.ChangeSet, error) {
	if err := req.Validate(); err != nil {
		return changes.ChangeSet{}, err
	}
	log := logger.OrDiscard(i.Logger)
	defer logger.Timed(log, "install", "branch", req.Branch)()

	if err := i.Store.Checkout(ctx, req.Branch); err != nil {
		return changes.ChangeSet{}, err
	}
	synced, err := i.syncLockedPaths(ctx, req, patterns)
	if err != nil {
		return changes.ChangeSet{}, err
	}

	replacer := &replace.Replacer{Status: i.Store, Logger: log}
	replaced, err := replacer.Replace(ctx, i.Store.Root(), req.ArtifactRoot, patterns)
	if err != nil {
		return changes.ChangeSet{}, err
	}
	committed, err := i.Store.CommitIfChanged(ctx, req.Message)
	if err != nil {
		return changes.ChangeSet{}, err
	}
	for _, w := range replaced.Warnings {
		committed = committed.WithWarning(w)
	}
	if committed.Empty() {
		log.Debug("artifact matches branch", "branch", req.Branch)
	} else if req.Tag != "" {
		if _, err := i.Store.CreateTag(ctx, req.Tag); err != nil {
			return committed, err
		}
	}

	if !req.Push || (committed.Empty() && !synced) {
		return committed, nil
	}
	return committed, i.Store.Push(ctx, req.Branch)
}

// syncLockedPaths copies the locked paths of req.SyncFrom into the branch. On a clean
// checkout the result gets its own commit; on a fresh orphan branch, whose tree still
// holds untracked files, the synced paths are left for the install commit. It reports
// whether a sync commit was made.
func (i *Installer) syncLockedPaths(ctx context.Context, req Request, patterns guard.Patterns) (bool, error) {
	if req.SyncFrom == "" || req.SyncFrom == req.Branch {
		return false, nil
	}
	before, err := i.Store.Status(ctx)
	if err != nil {
		return false, err
	}
	paths, err := i.Store.SyncPaths(ctx, req.SyncFrom, patterns)
	if err != nil || len(paths) == 0 || !before.Empty() {
		return false, err
	}
	cs, err := i.Store.CommitIfChanged(ctx, fmt.Sprintf(messages.SyncPathsCommitFmt, req.SyncFrom))
	if err != nil {
		return false, err
	}
	return !cs.Empty(), nil
}
