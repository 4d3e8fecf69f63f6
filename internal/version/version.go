// Package version reads WordPress package versions from file headers and compares them.
package version

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const headerKey = "Version:"

// themeStylesheet carries the header of a WordPress theme.
const themeStylesheet = "style.css"

// Header returns the value of the first "Version:" header line in content.
func Header(content []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, headerKey)
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+len(headerKey):])
		value = strings.TrimSpace(strings.TrimSuffix(value, "*/"))
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// FromDir reads the version from the root-level PHP files of a plugin directory, in name
// order, falling back to the stylesheet header of a theme.
func FromDir(dir string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	var candidates []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".php") {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Strings(candidates)
	candidates = append(candidates, themeStylesheet)
	for _, name := range candidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, err
		}
		if v, ok := Header(data); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// TreeReader reads files of a committed tree.
type TreeReader interface {
	ListFiles(ctx context.Context, ref string) ([]string, error)
	ReadFile(ctx context.Context, ref string, path string) ([]byte, error)
}

// FromBranch reads the version from the root-level files of ref, with the same lookup
// order as FromDir.
func FromBranch(ctx context.Context, reader TreeReader, ref string) (string, bool, error) {
	files, err := reader.ListFiles(ctx, ref)
	if err != nil {
		return "", false, err
	}
	var candidates []string
	hasStylesheet := false
	for _, name := range files {
		if strings.Contains(name, "/") {
			continue
		}
		switch {
		case path.Ext(name) == ".php":
			candidates = append(candidates, name)
		case name == themeStylesheet:
			hasStylesheet = true
		}
	}
	sort.Strings(candidates)
	if hasStylesheet {
		candidates = append(candidates, themeStylesheet)
	}
	for _, name := range candidates {
		data, err := reader.ReadFile(ctx, ref, name)
		if err != nil {
			return "", false, err
		}
		if v, ok := Header(data); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}
