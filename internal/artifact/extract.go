package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// macMetadataDir holds resource forks some archivers add; it is never part of a package.
const macMetadataDir = "__MACOSX"

// Extract unpacks the zip archive at zipPath into dir and returns the package root: the
// directory named hint when present, else the single top-level directory, else dir itself.
// Entries escaping dir are rejected; permission bits and symlinks are preserved. All writes
// go through an os.Root, and no entry may pass through a symlink from the same archive.
func Extract(zipPath string, dir string, hint string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &syncerr.ExtractionError{Archive: filepath.Base(zipPath), Err: err}
	}
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fail(err)
	}
	defer func() {
		_ = reader.Close()
	}()
	root, err := os.OpenRoot(dir)
	if err != nil {
		return fail(err)
	}
	defer func() {
		_ = root.Close()
	}()

	var entries []entry
	links := linkSet{}
	for _, f := range reader.File {
		name := strings.TrimPrefix(path.Clean(strings.ReplaceAll(f.Name, "\\", "/")), "./")
		if name == "." || name == macMetadataDir || strings.HasPrefix(name, macMetadataDir+"/") {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fail(fmt.Errorf(messages.ExtractUnsafePathFmt, f.Name))
		}
		if f.Mode()&os.ModeSymlink != 0 {
			links[name] = true
		}
		entries = append(entries, entry{file: f, name: name})
	}

	files := 0
	// Links are created last so no directory or file write can follow one.
	var pending []entry
	for _, e := range entries {
		if links.crosses(e.name) {
			return fail(fmt.Errorf(messages.ExtractUnsafePathFmt, e.file.Name))
		}
		mode := e.file.Mode()
		switch {
		case mode.IsDir():
			if err := root.MkdirAll(filepath.FromSlash(e.name), 0o755); err != nil {
				return fail(err)
			}
		case mode&os.ModeSymlink != 0:
			pending = append(pending, e)
		case mode.IsRegular():
			if err := writeFile(root, e); err != nil {
				return fail(err)
			}
			files++
		default:
			return fail(fmt.Errorf(messages.ExtractUnsupportedFmt, e.file.Name, mode.Type()))
		}
	}
	for _, e := range pending {
		if err := writeSymlink(root, links, e); err != nil {
			return fail(err)
		}
		files++
	}
	if files == 0 {
		return fail(errors.New(messages.ExtractEmptyArchive))
	}
	return packageRoot(dir, hint)
}

type entry struct {
	file *zip.File
	// name is the cleaned slash-separated path inside the archive.
	name string
}

// linkSet holds the names of every symlink entry in an archive.
type linkSet map[string]bool

// crosses reports whether a proper ancestor of name is a symlink entry.
func (l linkSet) crosses(name string) bool {
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		if l[dir] {
			return true
		}
	}
	return false
}

// contains walks link relative to the directory holding name. It reports false when the
// walk leaves the archive root or steps into another symlink entry.
func (l linkSet) contains(name string, link string) bool {
	if path.IsAbs(link) {
		return false
	}
	var parts []string
	if dir := path.Dir(name); dir != "." {
		parts = strings.Split(dir, "/")
	}
	for _, part := range strings.Split(link, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return false
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, part)
			if l[strings.Join(parts, "/")] {
				return false
			}
		}
	}
	return true
}

func writeFile(root *os.Root, e entry) error {
	target := filepath.FromSlash(e.name)
	if err := mkdirParent(root, target); err != nil {
		return err
	}
	src, err := e.file.Open()
	if err != nil {
		return fmt.Errorf(messages.ExtractOpenEntryFmt, e.file.Name, err)
	}
	defer func() {
		_ = src.Close()
	}()
	perm := e.file.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	dst, err := root.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf(messages.ExtractWriteEntryFmt, e.file.Name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf(messages.ExtractWriteEntryFmt, e.file.Name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf(messages.ExtractWriteEntryFmt, e.file.Name, err)
	}
	return root.Chmod(target, perm)
}

// writeSymlink recreates a link whose target stays inside the extraction directory without
// passing through another link.
func writeSymlink(root *os.Root, links linkSet, e entry) error {
	src, err := e.file.Open()
	if err != nil {
		return fmt.Errorf(messages.ExtractOpenEntryFmt, e.file.Name, err)
	}
	defer func() {
		_ = src.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(src, 4096))
	if err != nil {
		return fmt.Errorf(messages.ExtractOpenEntryFmt, e.file.Name, err)
	}
	link := filepath.ToSlash(string(raw))
	if !links.contains(e.name, link) {
		return fmt.Errorf(messages.ExtractUnsafePathFmt, e.file.Name)
	}
	target := filepath.FromSlash(e.name)
	if err := mkdirParent(root, target); err != nil {
		return err
	}
	_ = root.Remove(target)
	return root.Symlink(filepath.FromSlash(link), target)
}

func mkdirParent(root *os.Root, name string) error {
	parent := filepath.Dir(name)
	if parent == "." {
		return nil
	}
	return root.MkdirAll(parent, 0o755)
}

func packageRoot(dir string, hint string) (string, error) {
	if hint != "" && filepath.IsLocal(hint) {
		candidate := filepath.Join(dir, hint)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &syncerr.ExtractionError{Archive: dir, Err: err}
	}
	var top []os.DirEntry
	for _, entry := range entries {
		if entry.Name() != macMetadataDir {
			top = append(top, entry)
		}
	}
	if len(top) == 1 && top[0].IsDir() {
		return filepath.Join(dir, top[0].Name()), nil
	}
	return dir, nil
}
