package main

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conn-castle/wpsync/internal/syncerr"
	"github.com/conn-castle/wpsync/internal/testutil"
)

// run executes the CLI through runMain and returns stdout, stderr and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := 0
	runMain(append([]string{"wpsync"}, args...), &stdout, &stderr, func(c int) { code = c })
	return stdout.String(), stderr.String(), code
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wpsync.toml")
	identity := "[git]\nauthor_name = \"wpsync\"\nauthor_email = \"wpsync@example.com\"\n"
	if err := os.WriteFile(path, []byte(identity+body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range testutil.SortedKeys(files) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestMainVersion(t *testing.T) {
	stdout, _, code := run(t, "--version")
	if code != 0 || !strings.Contains(stdout, Version) {
		t.Fatalf("unexpected version output %q (exit %d)", stdout, code)
	}
}

func TestRunMainUnknownCommand(t *testing.T) {
	_, stderr, code := run(t, "unknown")
	if code != syncerr.ExitOther {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "unknown command") {
		t.Fatalf("expected error output, got %q", stderr)
	}
}

func TestVersionString(t *testing.T) {
	origCommit, origDate := Commit, BuildDate
	t.Cleanup(func() { Commit, BuildDate = origCommit, origDate })

	Commit, BuildDate = "abc123", "2026-01-02"
	if got := versionString(); got != Version+" (commit abc123, built 2026-01-02)" {
		t.Fatalf("versionString = %q", got)
	}
}

func TestIsNewerExitCodes(t *testing.T) {
	if _, _, code := run(t, "is-newer", "3.13.2", "3.13.1.9"); code != 0 {
		t.Fatalf("expected newer, got exit %d", code)
	}
	_, stderr, code := run(t, "is-newer", "4.0.0-rc.1", "4.0.0")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stderr != "" {
		t.Fatalf("is-newer must not print on exit 1, got %q", stderr)
	}
}

func TestMergeSingleBranchIsConfigError(t *testing.T) {
	_, stderr, code := run(t, "--repo", t.TempDir(), "merge", "free")
	if code != syncerr.ExitConfig {
		t.Fatalf("expected exit %d, got %d", syncerr.ExitConfig, code)
	}
	if !strings.Contains(stderr, "at least 2 branches") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestUsageErrorsAreConfigErrors(t *testing.T) {
	cases := map[string][]string{
		"missing args":  {"download-wordpress", "funnel-builder"},
		"extra args":    {"is-newer", "1.0", "2.0", "3.0"},
		"unknown flag":  {"composer", "--nope", "a", "1.0", "plugin"},
		"bad flag type": {"--verbose=maybe", "is-newer", "1.0", "2.0"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, stderr, code := run(t, args...)
			if code != syncerr.ExitConfig {
				t.Fatalf("expected exit %d, got %d: %s", syncerr.ExitConfig, code, stderr)
			}
		})
	}
}

func TestInvalidConfigIsConfigError(t *testing.T) {
	path := writeConfig(t, "[download]\nmax_mb = 0\n")
	_, _, code := run(t, "--config", path, "check-wordpress-org", "x")
	if code != syncerr.ExitConfig {
		t.Fatalf("expected exit %d, got %d", syncerr.ExitConfig, code)
	}
}

func TestCheckWordPressOrgPrintsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info/funnel-builder.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"version":"3.13.1"}`))
	}))
	t.Cleanup(server.Close)
	path := writeConfig(t, "[wordpress]\napi_base = \""+server.URL+"/info\"\ndownload_base = \"https://dl.example.org/plugin\"\n")

	stdout, stderr, code := run(t, "--config", path, "check-wordpress-org", "funnel-builder")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	want := `{"version":"3.13.1","download_url":"https://dl.example.org/plugin/funnel-builder.3.13.1.zip"}` + "\n"
	if stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}

	_, _, code = run(t, "--config", path, "check-wordpress-org", "missing")
	if code != syncerr.ExitUpstream {
		t.Fatalf("expected exit %d for a missing plugin, got %d", syncerr.ExitUpstream, code)
	}
}

func TestCheckLicensePrintsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"k":{"new_version":"2.0.0","package":"https://cdn.example.com/p.zip?a=1&b=2"}}`))
	}))
	t.Cleanup(server.Close)

	stdout, stderr, code := run(t, "check-license", server.URL, "KEY", "p/p.php", "P", "me@example.com", "example.com", "i1")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != `{"version":"2.0.0","download_url":"https://cdn.example.com/p.zip?a=1&b=2"}`+"\n" {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestComposerWritesManifest(t *testing.T) {
	root := t.TempDir()
	_, stderr, code := run(t, "--repo", root, "composer", "bricks", "1.11.1", "wordpress-theme", "--vendor", "acme")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(filepath.Join(root, "composer.json"))
	if err != nil {
		t.Fatalf("read composer.json: %v", err)
	}
	if !strings.Contains(string(data), `"name": "acme/bricks"`) {
		t.Fatalf("unexpected manifest %s", data)
	}

	_, _, code = run(t, "--repo", root, "composer", "bricks", "1.0", "library")
	if code != syncerr.ExitConfig {
		t.Fatalf("expected exit %d for a bad type, got %d", syncerr.ExitConfig, code)
	}
}

func TestPluginVersionFromDirAndBranch(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitBranch("pro", map[string]string{"pro.php": "<?php\n/*\n * Version: 2.5.0\n */"}, true)
	repo.CommitBranch("master", map[string]string{"style.css": "/*\nTheme Name: T\nVersion: 1.4\n*/"}, true)

	stdout, stderr, code := run(t, "--repo", repo.Dir, "plugin-version")
	if code != 0 || stdout != "1.4\n" {
		t.Fatalf("dir version %q (exit %d): %s", stdout, code, stderr)
	}
	stdout, stderr, code = run(t, "--repo", repo.Dir, "plugin-version", "--branch", "pro")
	if code != 0 || stdout != "2.5.0\n" {
		t.Fatalf("branch version %q (exit %d): %s", stdout, code, stderr)
	}
	stdout, _, _ = run(t, "--repo", repo.Dir, "plugin-version", t.TempDir())
	if stdout != "unknown\n" {
		t.Fatalf("empty dir version %q", stdout)
	}
}

func TestDownloadWordPressAndMerge(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitBranch("master", map[string]string{
		".github/workflows/update.yml": "ci",
		".gitignore":                   "vendor/\n",
	}, true)
	repo.CommitBranch("pro", map[string]string{
		"funnel-builder.php":      "<?php // pro",
		"includes/pro/module.php": "pro module",
	}, true)
	repo.Tag("pro-v3.13.3", true)
	repo.Git("checkout", "-q", "master")

	archive := zipBytes(t, map[string]string{
		"funnel-builder/funnel-builder.php": "<?php // free",
		"funnel-builder/readme.txt":         "readme",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plugin/funnel-builder.3.13.1.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)
	config := writeConfig(t, "[wordpress]\ndownload_base = \""+server.URL+"/plugin\"\n")

	stdout, stderr, code := run(t, "--repo", repo.Dir, "--config", config, "download-wordpress", "funnel-builder", "3.13.1", "free")
	if code != 0 {
		t.Fatalf("download-wordpress exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Installed version 3.13.1 into free and pushed") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if repo.RemoteRev("free") == "" {
		t.Fatalf("free was not pushed")
	}

	stdout, _, code = run(t, "--repo", repo.Dir, "--config", config, "download-wordpress", "funnel-builder", "3.13.1", "free")
	if code != 0 || !strings.Contains(stdout, "No changes") {
		t.Fatalf("second download: exit %d, %q", code, stdout)
	}

	stdout, stderr, code = run(t, "--repo", repo.Dir, "--config", config, "merge", "free", "pro", "--no-push", "--diff")
	if code != 0 {
		t.Fatalf("merge exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "changes left uncommitted") {
		t.Fatalf("unexpected merge output %q", stdout)
	}
	tree := testutil.ReadTree(t, repo.Dir)
	want := map[string]string{
		".github/workflows/update.yml": "ci",
		".gitignore":                   "vendor/\n",
		"funnel-builder.php":           "<?php // pro",
		"readme.txt":                   "readme",
		"includes/pro/module.php":      "pro module",
	}
	for path, content := range want {
		if tree[path] != content {
			t.Fatalf("%s = %q, want %q (tree %v)", path, tree[path], content, tree)
		}
	}
	if len(tree) != len(want) {
		t.Fatalf("unexpected tree %v", tree)
	}
}

func TestMergeDiffAfterPush(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitBranch("free", map[string]string{"plugin.php": "new line\n"}, true)
	repo.CommitBranch("pro", map[string]string{"pro.php": "pro\n"}, true)
	repo.CommitBranch("master", map[string]string{"plugin.php": "old line\n"}, true)
	config := writeConfig(t, "")

	stdout, stderr, code := run(t, "--repo", repo.Dir, "--config", config, "merge", "free", "pro", "--diff")
	if code != 0 {
		t.Fatalf("merge exit %d: %s", code, stderr)
	}
	for _, want := range []string{"-old line", "+new line", "Merged into master and pushed"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("merge output missing %q: %q", want, stdout)
		}
	}
	if repo.RemoteRev("master") != repo.Git("rev-parse", "master") {
		t.Fatalf("master was not pushed")
	}
}

func TestDownloadFailureExitCode(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.CommitBranch("master", map[string]string{"README.md": "base"}, true)
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	config := writeConfig(t, "[wordpress]\ndownload_base = \""+server.URL+"\"\n")

	_, _, code := run(t, "--repo", repo.Dir, "--config", config, "download-wordpress", "x", "1.0", "free")
	if code != syncerr.ExitFetch {
		t.Fatalf("expected exit %d, got %d", syncerr.ExitFetch, code)
	}
	if branch := repo.Git("symbolic-ref", "--short", "HEAD"); branch != "master" {
		t.Fatalf("checkout moved to %s", branch)
	}
}
