// Package guard protects infrastructure paths (VCS metadata, CI workflows, ignore files)
// across destructive tree operations. Patterns are relative path prefixes; a snapshot
// copies every guarded path aside and restores it after the tree has been rewritten.
package guard

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// EnvLockedPaths names the environment variable holding comma-separated additional patterns.
const EnvLockedPaths = "LOCKED_PATHS"

// DefaultPatterns are always guarded.
var DefaultPatterns = []string{fsutil.VCSDir, ".github", ".gitignore"}

// Patterns is a deduplicated, normalized set of guarded path prefixes.
type Patterns struct {
	list []string
}

// NewPatterns returns DefaultPatterns plus extra, normalized and deduplicated in first-seen order.
// Blank entries are ignored; absolute paths and paths escaping the tree are configuration errors.
func NewPatterns(extra ...string) (Patterns, error) {
	seen := make(map[string]struct{}, len(DefaultPatterns)+len(extra))
	out := make([]string, 0, len(DefaultPatterns)+len(extra))
	for _, raw := range append(append([]string{}, DefaultPatterns...), extra...) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		normalized, err := Normalize(raw)
		if err != nil {
			return Patterns{}, err
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return Patterns{list: out}, nil
}

// ParseList splits a comma-separated pattern list such as the LOCKED_PATHS value.
func ParseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Normalize converts a pattern to a clean, slash-separated relative path.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(filepath.ToSlash(raw))
	if strings.HasPrefix(trimmed, "/") || filepath.IsAbs(raw) {
		return "", syncerr.Configf(messages.GuardPatternAbsoluteFmt, raw)
	}
	cleaned := path.Clean(strings.TrimSuffix(trimmed, "/"))
	if cleaned == "." || cleaned == "" {
		return "", syncerr.Configf(messages.GuardPatternEmptyFmt, raw)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", syncerr.Configf(messages.GuardPatternEscapesFmt, raw)
	}
	return cleaned, nil
}

// List returns the patterns in first-seen order.
func (p Patterns) List() []string {
	return append([]string(nil), p.list...)
}

// Match reports whether rel equals a pattern or lies below one.
func (p Patterns) Match(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
	for _, pattern := range p.list {
		if covers(pattern, rel) {
			return true
		}
	}
	return false
}

// Roots returns the sorted minimal set of patterns: a pattern lying below another is dropped.
func (p Patterns) Roots() []string {
	sorted := append([]string(nil), p.list...)
	sort.Strings(sorted)
	out := make([]string, 0, len(sorted))
	for _, candidate := range sorted {
		covered := false
		for _, root := range out {
			if covers(root, candidate) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, candidate)
		}
	}
	return out
}

// Skip adapts Match to fsutil.SkipFunc, also excluding VCS metadata.
func (p Patterns) Skip(rel string) bool {
	return fsutil.IsVCS(rel) || p.Match(rel)
}

func covers(pattern string, rel string) bool {
	return rel == pattern || strings.HasPrefix(rel, pattern+"/")
}
