package guard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// Snapshot holds copies of the guarded paths of one tree in a holding directory
// outside that tree.
type Snapshot struct {
	holding  string
	paths    []string
	retained bool
}

// tempDir is a seam for tests.
var tempDir = os.TempDir

// Take copies every existing guarded root under root into a fresh holding directory.
// Roots that do not exist are skipped; the VCS metadata directory is never copied
// because tree operations never touch it.
func Take(root string, patterns Patterns) (*Snapshot, error) {
	holding, err := os.MkdirTemp(tempDir(), "wpsync-guard-*")
	if err != nil {
		return nil, &syncerr.FilesystemError{Op: "snapshot", Path: root, Err: err}
	}
	snap := &Snapshot{holding: holding}
	for _, rel := range patterns.Roots() {
		if fsutil.IsVCS(rel) {
			continue
		}
		src := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Lstat(src); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			_ = snap.Close()
			return nil, &syncerr.FilesystemError{Op: "snapshot", Path: rel, Err: err}
		}
		if err := fsutil.CopyPath(src, filepath.Join(holding, filepath.FromSlash(rel))); err != nil {
			_ = snap.Close()
			return nil, &syncerr.FilesystemError{Op: "snapshot", Path: rel, Err: err}
		}
		snap.paths = append(snap.paths, rel)
	}
	return snap, nil
}

// Paths returns the guarded roots captured by the snapshot.
func (s *Snapshot) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Dir returns the holding directory.
func (s *Snapshot) Dir() string {
	return s.holding
}

// Restore writes every captured root back into root, replacing whatever now sits at that
// path. On failure the holding directory is retained and named in the returned error.
func (s *Snapshot) Restore(root string) error {
	for _, rel := range s.paths {
		dst := filepath.Join(root, filepath.FromSlash(rel))
		if err := clearParents(root, rel); err != nil {
			return s.fail(rel, err)
		}
		if err := os.RemoveAll(dst); err != nil {
			return s.fail(rel, err)
		}
		if err := fsutil.CopyPath(filepath.Join(s.holding, filepath.FromSlash(rel)), dst); err != nil {
			return s.fail(rel, err)
		}
	}
	return nil
}

// clearParents removes any ancestor of rel under root that is not a real directory, so a
// nested guarded path can be recreated after a layer put a file or link in its way.
func clearParents(root string, rel string) error {
	parts := strings.Split(rel, "/")
	dir := root
	for _, part := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return os.Remove(dir)
		}
	}
	return nil
}

func (s *Snapshot) fail(rel string, err error) error {
	s.retained = true
	return &syncerr.FilesystemError{Op: "restore", Path: rel, Retained: s.holding, Err: err}
}

// Close removes the holding directory unless a failed restore retained it.
func (s *Snapshot) Close() error {
	if s == nil || s.retained || s.holding == "" {
		return nil
	}
	if err := os.RemoveAll(s.holding); err != nil {
		return &syncerr.FilesystemError{Op: "cleanup", Path: s.holding, Err: err}
	}
	return nil
}
