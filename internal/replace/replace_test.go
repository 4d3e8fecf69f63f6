package replace

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/gitstore"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/syncerr"
	"github.com/conn-castle/wpsync/internal/testutil"
)

type fakeStatus struct {
	cs    changes.ChangeSet
	err   error
	calls int
}

func (f *fakeStatus) Status(context.Context) (changes.ChangeSet, error) {
	f.calls++
	return f.cs, f.err
}

func defaultPatterns(t *testing.T, extra ...string) guard.Patterns {
	t.Helper()
	patterns, err := guard.NewPatterns(extra...)
	if err != nil {
		t.Fatalf("NewPatterns: %v", err)
	}
	return patterns
}

func TestReplaceKeepsGuardedPathsAndDropsStaleFiles(t *testing.T) {
	tree := t.TempDir()
	testutil.WriteFiles(t, tree, map[string]string{
		".git/HEAD":                    "ref: refs/heads/free\n",
		".github/workflows/update.yml": "ours",
		".gitignore":                   "vendor/\n",
		"plugin.php":                   "v1",
		"includes/old.php":             "old",
	})
	artifact := t.TempDir()
	testutil.WriteFiles(t, artifact, map[string]string{
		".github/workflows/evil.yml": "theirs",
		".gitignore":                 "*\n",
		".git/config":                "bogus",
		"plugin.php":                 "v2",
		"includes/new.php":           "new",
	})

	status := &fakeStatus{cs: changes.ChangeSet{Modified: []string{"plugin.php"}}}
	r := &Replacer{Status: status}
	cs, err := r.Replace(context.Background(), tree, artifact, defaultPatterns(t))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if status.calls != 1 || len(cs.Modified) != 1 || len(cs.Warnings) != 0 {
		t.Fatalf("unexpected change set %+v (status calls %d)", cs, status.calls)
	}

	want := map[string]string{
		".github/workflows/update.yml": "ours",
		".gitignore":                   "vendor/\n",
		"plugin.php":                   "v2",
		"includes/new.php":             "new",
	}
	if diff := cmp.Diff(want, testutil.ReadTree(t, tree)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	head := testutil.ReadTree(t, filepath.Join(tree, ".git"))
	if head["HEAD"] != "ref: refs/heads/free\n" || head["config"] != "" {
		t.Fatalf("VCS metadata was touched: %v", head)
	}
}

func TestReplaceHonorsExtraPatterns(t *testing.T) {
	tree := t.TempDir()
	testutil.WriteFiles(t, tree, map[string]string{"scripts/deploy.sh": "ours", "plugin.php": "v1"})
	artifact := t.TempDir()
	testutil.WriteFiles(t, artifact, map[string]string{"scripts/deploy.sh": "theirs", "plugin.php": "v2"})

	r := &Replacer{Status: &fakeStatus{}}
	if _, err := r.Replace(context.Background(), tree, artifact, defaultPatterns(t, "scripts")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := testutil.ReadTree(t, tree)
	if got["scripts/deploy.sh"] != "ours" || got["plugin.php"] != "v2" {
		t.Fatalf("unexpected tree %v", got)
	}
}

func TestReplaceEmptyArtifactWarns(t *testing.T) {
	tree := t.TempDir()
	testutil.WriteFiles(t, tree, map[string]string{".gitignore": "x", "plugin.php": "v1"})
	artifact := t.TempDir()
	testutil.WriteFiles(t, artifact, map[string]string{".github/only.yml": "guarded"})

	r := &Replacer{Status: &fakeStatus{cs: changes.ChangeSet{Deleted: []string{"plugin.php"}}}}
	cs, err := r.Replace(context.Background(), tree, artifact, defaultPatterns(t))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(cs.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", cs.Warnings)
	}
	if diff := cmp.Diff(map[string]string{".gitignore": "x"}, testutil.ReadTree(t, tree)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceMissingArtifactLeavesTreeAlone(t *testing.T) {
	tree := t.TempDir()
	testutil.WriteFiles(t, tree, map[string]string{"plugin.php": "v1"})

	r := &Replacer{Status: &fakeStatus{}}
	_, err := r.Replace(context.Background(), tree, filepath.Join(t.TempDir(), "missing"), defaultPatterns(t))
	var fsErr *syncerr.FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %v", err)
	}
	if got := testutil.ReadTree(t, tree); got["plugin.php"] != "v1" {
		t.Fatalf("tree modified: %v", got)
	}
}

func TestReplaceReportsGitChangesAndIsIdempotent(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitBranch("free", map[string]string{
		".github/workflows/update.yml": "ci",
		"plugin.php":                   "v1",
		"readme.txt":                   "old",
	}, false)
	runner, err := gitstore.NewRunner(repo.Dir, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	store := gitstore.New(runner, gitstore.Options{AuthorName: "wpsync", AuthorEmail: "wpsync@example.com"})

	artifact := t.TempDir()
	testutil.WriteFiles(t, artifact, map[string]string{"plugin.php": "v2", "assets/app.js": "js"})

	r := &Replacer{Status: store}
	ctx := context.Background()
	cs, err := r.Replace(ctx, repo.Dir, artifact, defaultPatterns(t))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	want := changes.ChangeSet{
		Added:    []string{"assets/app.js"},
		Modified: []string{"plugin.php"},
		Deleted:  []string{"readme.txt"},
	}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Fatalf("change set mismatch (-want +got):\n%s", diff)
	}
	if _, err := store.CommitIfChanged(ctx, "Update to version 2"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	cs, err = r.Replace(ctx, repo.Dir, artifact, defaultPatterns(t))
	if err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	if !cs.Empty() {
		t.Fatalf("expected no changes on identical replace, got %+v", cs)
	}
}
