package guard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/wpsync/internal/syncerr"
)

func writeFile(t *testing.T, root string, rel string, content string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func readFile(t *testing.T, root string, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestNewPatternsMergesDefaultsAndDeduplicates(t *testing.T) {
	patterns, err := NewPatterns("./scripts/", ".github", "scripts", " ", "config//ci")
	require.NoError(t, err)
	assert.Equal(t, []string{".git", ".github", ".gitignore", "scripts", "config/ci"}, patterns.List())
}

func TestNewPatternsRejectsEscapes(t *testing.T) {
	for _, raw := range []string{"/etc", "../outside", "a/../../b", "."} {
		_, err := NewPatterns(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, syncerr.ErrConfiguration), raw)
	}
}

func TestMatchIsPrefixBased(t *testing.T) {
	patterns, err := NewPatterns("config/ci")
	require.NoError(t, err)

	cases := map[string]bool{
		".git":                       true,
		".git/config":                true,
		".gitignore":                 true,
		".gitattributes":             false,
		".github":                    true,
		".github/workflows/ci.yml":   true,
		".githubx":                   false,
		"./.github/workflows":        true,
		"config/ci/job.yml":          true,
		"config/app.ini":             false,
		"plugin.php":                 false,
		"includes/.github/README.md": false,
	}
	for rel, want := range cases {
		assert.Equal(t, want, patterns.Match(rel), rel)
	}
}

func TestRootsDropsCoveredPatterns(t *testing.T) {
	patterns, err := NewPatterns(".github/workflows", "scripts", "scripts-extra")
	require.NoError(t, err)
	assert.Equal(t, []string{".git", ".github", ".gitignore", "scripts", "scripts-extra"}, patterns.Roots())
}

func TestParseList(t *testing.T) {
	assert.Nil(t, ParseList("  "))
	assert.Equal(t, []string{"scripts", "bin"}, ParseList("scripts, ,bin,"))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".github/workflows/update.yml", "on: schedule", 0o644)
	writeFile(t, root, ".github/bin/sync.sh", "#!/bin/sh\n", 0o755)
	writeFile(t, root, ".gitignore", "vendor/\n", 0o644)
	writeFile(t, root, "plugin.php", "<?php", 0o644)

	patterns, err := NewPatterns()
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })
	assert.Equal(t, []string{".github", ".gitignore"}, snap.Paths())

	require.NoError(t, os.RemoveAll(filepath.Join(root, ".github")))
	writeFile(t, root, ".gitignore", "overwritten", 0o644)
	writeFile(t, root, ".github/workflows/evil.yml", "from artifact", 0o644)

	require.NoError(t, snap.Restore(root))

	assert.Equal(t, "on: schedule", readFile(t, root, ".github/workflows/update.yml"))
	assert.Equal(t, "vendor/\n", readFile(t, root, ".gitignore"))
	_, err = os.Stat(filepath.Join(root, ".github", "workflows", "evil.yml"))
	assert.True(t, os.IsNotExist(err), "restore must replace the whole guarded root")
	info, err := os.Stat(filepath.Join(root, ".github", "bin", "sync.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestSnapshotSkipsAbsentPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plugin.php", "<?php", 0o644)

	patterns, err := NewPatterns("scripts")
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })
	assert.Empty(t, snap.Paths())

	writeFile(t, root, "scripts/build.sh", "new", 0o644)
	require.NoError(t, snap.Restore(root))
	assert.Equal(t, "new", readFile(t, root, "scripts/build.sh"))
}

func TestSnapshotRestoresNestedPatternUnderDeletedParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config/ci/job.yml", "job", 0o644)
	writeFile(t, root, "config/app.ini", "app", 0o644)

	patterns, err := NewPatterns("config/ci")
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })

	require.NoError(t, os.RemoveAll(filepath.Join(root, "config")))
	require.NoError(t, snap.Restore(root))

	assert.Equal(t, "job", readFile(t, root, "config/ci/job.yml"))
	_, err = os.Stat(filepath.Join(root, "config", "app.ini"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotRestoresNestedPatternUnderReplacedParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config/ci/job.yml", "job", 0o644)

	patterns, err := NewPatterns("config/ci")
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })

	require.NoError(t, os.RemoveAll(filepath.Join(root, "config")))
	writeFile(t, root, "config", "a file now", 0o644)
	require.NoError(t, snap.Restore(root))

	assert.Equal(t, "job", readFile(t, root, "config/ci/job.yml"))
}

func TestSnapshotNeverCopiesVCSMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/master\n", 0o644)

	patterns, err := NewPatterns()
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snap.Close() })

	assert.Empty(t, snap.Paths())
	_, err = os.Stat(filepath.Join(snap.Dir(), ".git"))
	assert.True(t, os.IsNotExist(err))
}

func TestFailedRestoreRetainsHoldingArea(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".github/workflows/update.yml", "on: push", 0o644)

	patterns, err := NewPatterns()
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)

	// Simulate a holding area that lost its content between snapshot and restore.
	require.NoError(t, os.RemoveAll(filepath.Join(snap.Dir(), ".github")))

	err = snap.Restore(root)
	require.Error(t, err)
	var fsErr *syncerr.FilesystemError
	require.True(t, errors.As(err, &fsErr))
	assert.Equal(t, "restore", fsErr.Op)
	assert.Equal(t, snap.Dir(), fsErr.Retained)

	require.NoError(t, snap.Close())
	_, statErr := os.Stat(snap.Dir())
	assert.NoError(t, statErr, "holding area must survive a failed restore")
	_ = os.RemoveAll(snap.Dir())
}

func TestCloseRemovesHoldingArea(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "x", 0o644)
	patterns, err := NewPatterns()
	require.NoError(t, err)
	snap, err := Take(root, patterns)
	require.NoError(t, err)

	require.NoError(t, snap.Close())
	_, err = os.Stat(snap.Dir())
	assert.True(t, os.IsNotExist(err))
}
