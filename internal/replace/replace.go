// Package replace swaps the content of a working tree for an artifact while keeping the
// guarded paths of the tree intact.
package replace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// StatusReader reports the working tree changes relative to the last commit.
type StatusReader interface {
	Status(ctx context.Context) (changes.ChangeSet, error)
}

// Replacer replaces tree content with artifact content.
type Replacer struct {
	Status StatusReader
	Logger *slog.Logger
}

// Replace makes tree hold exactly the artifact's entries plus the tree's own guarded
// paths. Artifact entries at guarded paths are dropped. An artifact without copyable
// entries succeeds with a warning on the returned ChangeSet.
func (r *Replacer) Replace(ctx context.Context, tree string, artifactRoot string, patterns guard.Patterns) (changes.ChangeSet, error) {
	log := logger.OrDiscard(r.Logger)
	defer logger.Timed(log, "replace", "tree", tree, "artifact", artifactRoot)()

	entries, err := fsutil.TopLevel(artifactRoot, patterns.Skip)
	if err != nil {
		return changes.ChangeSet{}, &syncerr.FilesystemError{Op: "read", Path: artifactRoot, Err: err}
	}

	snap, err := guard.Take(tree, patterns)
	if err != nil {
		return changes.ChangeSet{}, err
	}
	defer func() {
		_ = snap.Close()
	}()

	if err := ctx.Err(); err != nil {
		return changes.ChangeSet{}, err
	}
	if err := overwrite(tree, artifactRoot, patterns); err != nil {
		if restoreErr := snap.Restore(tree); restoreErr != nil {
			return changes.ChangeSet{}, restoreErr
		}
		return changes.ChangeSet{}, err
	}
	if err := snap.Restore(tree); err != nil {
		return changes.ChangeSet{}, err
	}
	log.Debug("guarded paths restored", "paths", snap.Paths())

	cs, err := r.Status.Status(ctx)
	if err != nil {
		return changes.ChangeSet{}, err
	}
	if len(entries) == 0 {
		cs = cs.WithWarning(fmt.Sprintf(messages.ReplaceEmptyArtifactFmt, artifactRoot))
	}
	return cs, nil
}

func overwrite(tree string, artifactRoot string, patterns guard.Patterns) error {
	if err := fsutil.ClearDir(tree, func(name string) bool { return name == fsutil.VCSDir }); err != nil {
		return &syncerr.FilesystemError{Op: "clear", Path: tree, Err: err}
	}
	if err := fsutil.CopyTree(artifactRoot, tree, patterns.Skip); err != nil {
		return &syncerr.FilesystemError{Op: "copy", Path: artifactRoot, Err: err}
	}
	return nil
}
