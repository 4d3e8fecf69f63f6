// Package fsutil holds the filesystem primitives shared by guard, replace and merge.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/otiai10/copy"
)

// VCSDir is the version-control metadata entry that tree mutations never touch.
const VCSDir = ".git"

// SkipFunc reports whether a slash-separated path relative to the copy source is skipped.
// Skipping a directory skips everything below it.
type SkipFunc func(rel string) bool

// CopyTree copies every entry under src into dst, file by file. Existing files at the same
// path are overwritten and existing directories are merged; an entry whose kind differs
// from the source (file against directory, or a symlink) is replaced at any depth. Nothing
// else in dst is deleted. Permission bits are preserved and symlinks are copied as links.
// The dst root itself is not re-permissioned.
func CopyTree(src string, dst string, skip SkipFunc) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		Skip: func(info os.FileInfo, path string, dest string) (bool, error) {
			if skip != nil {
				rel, err := filepath.Rel(src, path)
				if err != nil {
					return false, err
				}
				if rel != "." && skip(filepath.ToSlash(rel)) {
					return true, nil
				}
			}
			return false, clearMismatch(info, dest)
		},
	}
	for _, entry := range entries {
		name := entry.Name()
		if skip != nil && skip(name) {
			continue
		}
		if err := CopyPath(filepath.Join(src, name), filepath.Join(dst, name), opts); err != nil {
			return err
		}
	}
	return nil
}

// CopyPath copies a single file, symlink or directory to dst, creating parents.
func CopyPath(src string, dst string, opts ...copy.Options) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if err := clearMismatch(info, dst); err != nil {
		return err
	}
	var opt copy.Options
	if len(opts) > 0 {
		opt = opts[0]
	} else {
		opt = copy.Options{OnSymlink: func(string) copy.SymlinkAction { return copy.Shallow }}
	}
	if err := copy.Copy(src, dst, opt); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// clearMismatch removes dst unless both it and the source are directories. Directories
// merge; anything else replaces dst outright.
func clearMismatch(info os.FileInfo, dst string) error {
	current, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info != nil && info.IsDir() && current.IsDir() {
		return nil
	}
	return os.RemoveAll(dst)
}

// ClearDir removes every top-level entry of root for which keep returns false.
func ClearDir(root string, keep func(name string) bool) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if keep != nil && keep(entry.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// TopLevel returns the sorted names of the entries directly under root that skip does not exclude.
func TopLevel(root string, skip SkipFunc) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if skip != nil && skip(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IsVCS reports whether a relative path is the VCS metadata entry or inside it.
func IsVCS(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == VCSDir || len(rel) > len(VCSDir) && rel[:len(VCSDir)+1] == VCSDir+"/"
}
