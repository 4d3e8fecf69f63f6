package testutil

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// RequireGit skips the test when no git binary is available and isolates git from the
// user's global and system configuration for the rest of the test.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_TERMINAL_PROMPT", "0")
}

// fixtureIdentity is applied to fixture commits only, so code under test must bring its own.
var fixtureIdentity = []string{
	"GIT_AUTHOR_NAME=Fixture",
	"GIT_AUTHOR_EMAIL=fixture@example.com",
	"GIT_COMMITTER_NAME=Fixture",
	"GIT_COMMITTER_EMAIL=fixture@example.com",
}

// Git runs git in dir and returns trimmed stdout, failing the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), fixtureIdentity...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String())
}

// Repo is a work clone wired to a bare origin, both in temporary directories.
type Repo struct {
	t *testing.T
	// Dir is the work clone.
	Dir string
	// Origin is the bare remote.
	Origin string
}

// NewRepo creates an empty bare origin and a work clone whose default branch is master.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	RequireGit(t)
	base := t.TempDir()
	origin := filepath.Join(base, "origin.git")
	dir := filepath.Join(base, "work")
	Git(t, base, "init", "-q", "--bare", origin)
	Git(t, origin, "symbolic-ref", "HEAD", "refs/heads/master")
	Git(t, base, "init", "-q", dir)
	Git(t, dir, "symbolic-ref", "HEAD", "refs/heads/master")
	Git(t, dir, "remote", "add", "origin", origin)
	return &Repo{t: t, Dir: dir, Origin: origin}
}

// Git runs git in the work clone.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	return Git(r.t, r.Dir, args...)
}

// CommitBranch makes branch hold exactly files (path to content) in a new commit and
// optionally pushes it. The work clone is left on branch.
func (r *Repo) CommitBranch(branch string, files map[string]string, push bool) {
	r.t.Helper()
	if r.hasRef("refs/heads/" + branch) {
		r.Git("checkout", "-q", "-f", branch)
	} else {
		r.Git("checkout", "-q", "--orphan", branch)
	}
	r.Git("rm", "-r", "-q", "--cached", "--ignore-unmatch", ".")
	ClearTree(r.t, r.Dir)
	WriteFiles(r.t, r.Dir, files)
	r.Git("add", "-A")
	r.Git("commit", "-q", "--allow-empty", "-m", "fixture "+branch)
	if push {
		r.Git("push", "-q", "origin", branch)
	}
}

// Tag creates a lightweight tag on HEAD and pushes it when push is set.
func (r *Repo) Tag(tag string, push bool) {
	r.t.Helper()
	r.Git("tag", tag)
	if push {
		r.Git("push", "-q", "origin", tag)
	}
}

// RevCount returns the number of commits reachable from ref.
func (r *Repo) RevCount(ref string) int {
	r.t.Helper()
	n, err := strconv.Atoi(r.Git("rev-list", "--count", ref))
	if err != nil {
		r.t.Fatalf("rev-list count: %v", err)
	}
	return n
}

// RemoteRev returns the commit the origin holds for branch, or "" when absent.
func (r *Repo) RemoteRev(branch string) string {
	r.t.Helper()
	cmd := exec.Command("git", "rev-parse", "-q", "--verify", "refs/heads/"+branch)
	cmd.Dir = r.Origin
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (r *Repo) hasRef(ref string) bool {
	cmd := exec.Command("git", "rev-parse", "-q", "--verify", ref)
	cmd.Dir = r.Dir
	return cmd.Run() == nil
}

// WriteFiles writes files (slash-separated path to content) below root with mode 0644.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, root, rel, content, 0o644)
	}
}

// WriteFile writes one file below root, creating parent directories.
func WriteFile(t *testing.T, root string, rel string, content string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("chmod %s: %v", rel, err)
	}
}

// ClearTree removes every top-level entry of root except .git.
func ClearTree(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			t.Fatalf("remove %s: %v", entry.Name(), err)
		}
	}
}

// ReadTree returns every regular file below root (excluding .git) keyed by slash path.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree: %v", err)
	}
	return out
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
