// Package merge composes several branches into one target tree. The first branch is the
// base; each later branch overlays it path by path. Overlays never delete, guarded paths
// of the target always survive, and the same inputs always produce the same tree.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// Plan describes one merge.
type Plan struct {
	// Branches are layered in order: index 0 is the base.
	Branches []string
	Target   string
	// Push commits and pushes the target; otherwise the result is left uncommitted.
	Push bool
	// Tag is created on the merge commit when set and a commit was made.
	Tag string
}

// Validate rejects plans that cannot run. It never touches the repository.
func (p Plan) Validate() error {
	if len(p.Branches) < 2 {
		return &syncerr.InsufficientBranchesError{Got: len(p.Branches)}
	}
	if strings.TrimSpace(p.Target) == "" {
		return syncerr.Configf(messages.MergeMissingTarget)
	}
	for _, branch := range p.Branches {
		if strings.TrimSpace(branch) == "" {
			return syncerr.Configf(messages.MergeEmptyBranchName)
		}
		if branch == p.Target {
			return syncerr.Configf(messages.MergeTargetIsSourceFmt, branch)
		}
	}
	return nil
}

// Store is the branch store the merger works through.
type Store interface {
	Root() string
	Checkout(ctx context.Context, branch string) error
	Status(ctx context.Context) (changes.ChangeSet, error)
	HeadCommit(ctx context.Context) (string, error)
	Export(ctx context.Context, branch string, dir string) (string, func(), error)
	LatestTagVersion(ctx context.Context, ref string) string
	CommitIfChanged(ctx context.Context, message string) (changes.ChangeSet, error)
	CreateTag(ctx context.Context, tag string) (bool, error)
	Push(ctx context.Context, branch string) error
}

// Result is the outcome of one merge.
type Result struct {
	// Changes are the target's changes against Base.
	Changes changes.ChangeSet
	// Base is the target commit before the merge; empty for a new branch.
	Base string
}

// Merger runs merge plans against one checkout.
type Merger struct {
	Store  Store
	Logger *slog.Logger
}

// tempDir is a seam for tests.
var tempDir = os.TempDir

// Merge checks out the target, rebuilds its tree from the plan's branches and reports the
// changes against the target's last commit. With plan.Push the result is committed
// (message naming each branch and its tagged version), optionally tagged, and pushed.
func (m *Merger) Merge(ctx context.Context, plan Plan, patterns guard.Patterns) (Result, error) {
	if err := plan.Validate(); err != nil {
		return Result{}, err
	}
	log := logger.OrDiscard(m.Logger)
	defer logger.Timed(log, "merge", "target", plan.Target, "branches", strings.Join(plan.Branches, ","))()

	if err := m.Store.Checkout(ctx, plan.Target); err != nil {
		return Result{}, err
	}
	base, err := m.Store.HeadCommit(ctx)
	if err != nil {
		return Result{}, err
	}
	root := m.Store.Root()
	snap, err := guard.Take(root, patterns)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = snap.Close()
	}()

	parts, err := m.layer(ctx, plan, root, patterns)
	if err != nil {
		if restoreErr := snap.Restore(root); restoreErr != nil {
			return Result{}, restoreErr
		}
		return Result{}, err
	}
	if err := snap.Restore(root); err != nil {
		return Result{}, err
	}

	cs, err := m.Store.Status(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Changes: cs, Base: base}
	if !plan.Push {
		return res, nil
	}

	message := messages.MergeCommitPrefix + strings.Join(parts, messages.MergeCommitJoin)
	committed, err := m.Store.CommitIfChanged(ctx, message)
	if err != nil {
		return res, err
	}
	if committed.Empty() {
		log.Debug("merge produced no changes", "target", plan.Target)
		return res, nil
	}
	if plan.Tag != "" {
		if _, err := m.Store.CreateTag(ctx, plan.Tag); err != nil {
			return res, err
		}
	}
	return res, m.Store.Push(ctx, plan.Target)
}

// layer clears the tree and copies each branch over it in order. It returns one commit
// message part per branch.
func (m *Merger) layer(ctx context.Context, plan Plan, root string, patterns guard.Patterns) ([]string, error) {
	if err := fsutil.ClearDir(root, func(name string) bool { return name == fsutil.VCSDir }); err != nil {
		return nil, &syncerr.FilesystemError{Op: "clear", Path: root, Err: err}
	}
	scratch, err := os.MkdirTemp(tempDir(), "wpsync-merge-*")
	if err != nil {
		return nil, &syncerr.FilesystemError{Op: "export", Path: root, Err: err}
	}
	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	parts := make([]string, 0, len(plan.Branches))
	for i, branch := range plan.Branches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(scratch, strconv.Itoa(i))
		ref, cleanup, err := m.Store.Export(ctx, branch, dir)
		if err != nil {
			return nil, err
		}
		copyErr := fsutil.CopyTree(dir, root, patterns.Skip)
		version := m.Store.LatestTagVersion(ctx, ref)
		cleanup()
		if copyErr != nil {
			return nil, &syncerr.FilesystemError{Op: "overlay", Path: branch, Err: copyErr}
		}
		parts = append(parts, fmt.Sprintf(messages.MergeCommitPartFmt, branch, version))
	}
	return parts, nil
}
