package worktree

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// Find walks up from start to the nearest directory holding a .git entry (directory or
// file). found is false when no ancestor is a checkout.
func Find(start string) (root string, found bool, err error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, &syncerr.FilesystemError{Op: "resolve", Path: start, Err: err}
	}
	for {
		_, err := os.Lstat(filepath.Join(dir, fsutil.VCSDir))
		if err == nil {
			return dir, true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", false, &syncerr.FilesystemError{Op: "stat", Path: dir, Err: err}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
