// Package changes describes the effect of a tree operation relative to the last commit.
package changes

import (
	"bytes"
	"sort"
	"strings"
)

// Kind classifies a changed path.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
)

// Entry is one changed path, slash-separated and relative to the tree root.
type Entry struct {
	Path string
	Kind Kind
}

// ChangeSet lists changed paths grouped by kind, each group sorted.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
	// Warnings carries non-fatal observations made while producing the change set.
	Warnings []string
}

// Empty reports whether no path changed. Warnings do not count.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Len returns the number of changed paths.
func (c ChangeSet) Len() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Entries returns every changed path sorted by path.
func (c ChangeSet) Entries() []Entry {
	out := make([]Entry, 0, c.Len())
	for _, p := range c.Added {
		out = append(out, Entry{Path: p, Kind: Added})
	}
	for _, p := range c.Modified {
		out = append(out, Entry{Path: p, Kind: Modified})
	}
	for _, p := range c.Deleted {
		out = append(out, Entry{Path: p, Kind: Deleted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// WithWarning returns a copy of c carrying an extra warning.
func (c ChangeSet) WithWarning(msg string) ChangeSet {
	c.Warnings = append(append([]string(nil), c.Warnings...), msg)
	return c
}

// ParsePorcelain parses `git status --porcelain -z --no-renames` output. Untracked and
// index-added paths are additions, deletions in either column are deletions, and every
// other status is a modification.
func ParsePorcelain(out []byte) ChangeSet {
	var cs ChangeSet
	for _, record := range bytes.Split(out, []byte{0}) {
		if len(record) < 4 {
			continue
		}
		code := string(record[:2])
		path := strings.TrimSuffix(string(record[3:]), "/")
		switch {
		case code == "??" || code[0] == 'A':
			cs.Added = append(cs.Added, path)
		case code[0] == 'D' || code[1] == 'D':
			cs.Deleted = append(cs.Deleted, path)
		default:
			cs.Modified = append(cs.Modified, path)
		}
	}
	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	return cs
}
