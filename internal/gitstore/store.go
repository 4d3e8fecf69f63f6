package gitstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/wpsync/internal/changes"
	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// DefaultRemote is the remote used when Options.Remote is empty.
const DefaultRemote = "origin"

// Options configure a Store.
type Options struct {
	// Remote names the remote branches are fetched from and pushed to.
	Remote string
	// AuthorName and AuthorEmail override the committer identity when set.
	AuthorName  string
	AuthorEmail string
}

// Store manages the branches of one checkout.
type Store struct {
	git    *Runner
	remote string
	ident  []string
	log    *slog.Logger
}

// New returns a Store operating through git.
func New(git *Runner, opts Options) *Store {
	remote := opts.Remote
	if remote == "" {
		remote = DefaultRemote
	}
	var ident []string
	if opts.AuthorName != "" {
		ident = append(ident, "-c", "user.name="+opts.AuthorName)
	}
	if opts.AuthorEmail != "" {
		ident = append(ident, "-c", "user.email="+opts.AuthorEmail)
	}
	return &Store{git: git, remote: remote, ident: ident, log: logger.OrDiscard(git.Logger)}
}

// Root returns the checkout directory.
func (s *Store) Root() string {
	return s.git.Dir
}

// Remote returns the configured remote name.
func (s *Store) Remote() string {
	return s.remote
}

type remoteState int

const (
	remoteNone remoteState = iota
	remotePresent
	remoteAbsent
	remoteUnreachable
)

// Checkout makes branch the current branch with a clean working tree. Local modifications
// are discarded. A branch that exists nowhere becomes an orphan branch with an empty index;
// the files already on disk stay as untracked content.
func (s *Store) Checkout(ctx context.Context, branch string) error {
	if s.refExists(ctx, "HEAD") {
		if _, err := s.git.Run(ctx, "reset", "-q", "--hard"); err != nil {
			return vcsError(syncerr.StageCheckout, branch, err)
		}
	}
	if _, err := s.git.Run(ctx, "clean", "-fdq"); err != nil {
		return vcsError(syncerr.StageCheckout, branch, err)
	}

	state, fetchErr := s.fetchBranch(ctx, branch)
	local := s.refExists(ctx, localRef(branch))
	switch {
	case local:
		if _, err := s.git.Run(ctx, "checkout", "-q", branch, "--"); err != nil {
			return vcsError(syncerr.StageCheckout, branch, err)
		}
		if state == remotePresent && s.isAncestor(ctx, localRef(branch), s.trackingRef(branch)) {
			if _, err := s.git.Run(ctx, "reset", "-q", "--hard", s.trackingRef(branch)); err != nil {
				return vcsError(syncerr.StageCheckout, branch, err)
			}
		}
	case state == remotePresent:
		if _, err := s.git.Run(ctx, "checkout", "-q", "-b", branch, "--track", s.remote+"/"+branch); err != nil {
			return vcsError(syncerr.StageCheckout, branch, err)
		}
	case state == remoteUnreachable:
		return &syncerr.BranchResolutionError{Branch: branch, Err: fetchErr}
	default:
		return s.orphan(ctx, branch)
	}
	return nil
}

func (s *Store) orphan(ctx context.Context, branch string) error {
	s.log.Debug("creating orphan branch", "branch", branch)
	if current, _ := s.CurrentBranch(ctx); current != branch {
		if _, err := s.git.Run(ctx, "checkout", "-q", "--orphan", branch); err != nil {
			return vcsError(syncerr.StageCheckout, branch, err)
		}
	}
	if _, err := s.git.Run(ctx, "rm", "-r", "-q", "--cached", "--ignore-unmatch", "."); err != nil {
		return vcsError(syncerr.StageCheckout, branch, err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name, which may be unborn.
func (s *Store) CurrentBranch(ctx context.Context) (string, error) {
	res, err := s.git.Run(ctx, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return "", vcsError(syncerr.StageRead, "", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// HeadCommit returns the commit checked out, or "" on an unborn branch.
func (s *Store) HeadCommit(ctx context.Context) (string, error) {
	if !s.refExists(ctx, "HEAD") {
		return "", nil
	}
	res, err := s.git.Run(ctx, "rev-parse", "--verify", "HEAD^{commit}")
	if err != nil {
		return "", vcsError(syncerr.StageRead, s.branchName(ctx), err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Status reports the working tree changes relative to the last commit.
func (s *Store) Status(ctx context.Context) (changes.ChangeSet, error) {
	res, err := s.git.Run(ctx, "status", "--porcelain", "-z", "--untracked-files=all", "--no-renames")
	if err != nil {
		return changes.ChangeSet{}, vcsError(syncerr.StageStatus, s.branchName(ctx), err)
	}
	return changes.ParsePorcelain([]byte(res.Stdout)), nil
}

// CommitIfChanged stages everything and commits with message. A clean tree yields an
// empty ChangeSet and no commit.
func (s *Store) CommitIfChanged(ctx context.Context, message string) (changes.ChangeSet, error) {
	cs, err := s.Status(ctx)
	if err != nil {
		return changes.ChangeSet{}, err
	}
	if cs.Empty() {
		return cs, nil
	}
	branch := s.branchName(ctx)
	if _, err := s.git.Run(ctx, "add", "-A"); err != nil {
		return changes.ChangeSet{}, vcsError(syncerr.StageCommit, branch, err)
	}
	args := append(append([]string{}, s.ident...), "commit", "-q", "--no-verify", "-m", message)
	if _, err := s.git.Run(ctx, args...); err != nil {
		return changes.ChangeSet{}, vcsError(syncerr.StageCommit, branch, err)
	}
	s.log.Debug("committed", "branch", branch, "paths", cs.Len())
	return cs, nil
}

// CreateTag tags HEAD unless the tag already exists. It reports whether a tag was created.
func (s *Store) CreateTag(ctx context.Context, tag string) (bool, error) {
	if s.refExists(ctx, "refs/tags/"+tag) {
		s.log.Debug("tag exists", "tag", tag)
		return false, nil
	}
	if _, err := s.git.Run(ctx, "tag", tag); err != nil {
		return false, vcsError(syncerr.StageTag, s.branchName(ctx), err)
	}
	return true, nil
}

// Push publishes branch and all tags. A non-fast-forward rejection is a PushConflictError,
// any other failure a PushError. Nothing is retried.
func (s *Store) Push(ctx context.Context, branch string) error {
	if !s.hasRemote(ctx) {
		return &syncerr.PushError{Branch: branch, Err: fmt.Errorf(messages.GitNoRemoteFmt, s.remote)}
	}
	_, err := s.git.Run(ctx, "push", "-q", "--tags", s.remote, localRef(branch)+":"+localRef(branch))
	if err == nil {
		return nil
	}
	if stderrContains(err, "[rejected]", "non-fast-forward", "fetch first", "updates were rejected") {
		return &syncerr.PushConflictError{Branch: branch, Err: err}
	}
	return &syncerr.PushError{Branch: branch, Err: err}
}

// SyncPaths replaces every guarded root of the working tree with its content on branch
// from. Roots absent from that branch are left alone. It returns the synced roots; the
// caller commits.
func (s *Store) SyncPaths(ctx context.Context, from string, patterns guard.Patterns) ([]string, error) {
	state, _ := s.fetchBranch(ctx, from)
	ref := s.freshest(ctx, from, state)
	if ref == "" {
		s.log.Debug("sync source missing", "branch", from)
		return nil, nil
	}
	var synced []string
	for _, rel := range patterns.Roots() {
		if fsutil.IsVCS(rel) {
			continue
		}
		if _, err := s.git.Run(ctx, "cat-file", "-e", ref+":"+rel); err != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.git.Dir, filepath.FromSlash(rel))); err != nil {
			return synced, &syncerr.FilesystemError{Op: "sync", Path: rel, Err: err}
		}
		if _, err := s.git.Run(ctx, "checkout", ref, "--", rel); err != nil {
			return synced, vcsError(syncerr.StageSync, from, err)
		}
		synced = append(synced, rel)
	}
	return synced, nil
}

// ResolveRef returns the freshest ref holding branch: the remote-tracking ref when the
// local branch is missing or behind it, the local branch otherwise.
func (s *Store) ResolveRef(ctx context.Context, branch string) (string, error) {
	state, fetchErr := s.fetchBranch(ctx, branch)
	if ref := s.freshest(ctx, branch, state); ref != "" {
		return ref, nil
	}
	if state == remoteUnreachable {
		return "", &syncerr.BranchResolutionError{Branch: branch, Err: fetchErr}
	}
	return "", &syncerr.BranchResolutionError{Branch: branch, Missing: true}
}

// Export materializes branch in a detached worktree at dir, which must not exist or be
// empty. It returns the resolved ref and a cleanup func removing the worktree.
func (s *Store) Export(ctx context.Context, branch string, dir string) (string, func(), error) {
	ref, err := s.ResolveRef(ctx, branch)
	if err != nil {
		return "", nil, err
	}
	if _, err := s.git.Run(ctx, "worktree", "add", "-q", "--detach", dir, ref); err != nil {
		return "", nil, vcsError(syncerr.StageExport, branch, err)
	}
	cleanup := func() {
		if _, err := s.git.Run(context.Background(), "worktree", "remove", "--force", dir); err != nil {
			_ = os.RemoveAll(dir)
			_, _ = s.git.Run(context.Background(), "worktree", "prune")
		}
	}
	return ref, cleanup, nil
}

// ListFiles lists every file path on ref.
func (s *Store) ListFiles(ctx context.Context, ref string) ([]string, error) {
	res, err := s.git.Run(ctx, "ls-tree", "-r", "-z", "--name-only", ref)
	if err != nil {
		return nil, vcsError(syncerr.StageRead, ref, err)
	}
	var out []string
	for _, name := range strings.Split(res.Stdout, "\x00") {
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// ReadFile returns the content of path on ref.
func (s *Store) ReadFile(ctx context.Context, ref string, path string) ([]byte, error) {
	res, err := s.git.Run(ctx, "show", ref+":"+path)
	if err != nil {
		return nil, vcsError(syncerr.StageRead, ref, err)
	}
	return []byte(res.Stdout), nil
}

// LatestTagVersion returns the version of the nearest tag reachable from ref, taken after
// the last "-v" of the tag name (free-v1.2.3 gives 1.2.3), or "unknown" without a tag.
func (s *Store) LatestTagVersion(ctx context.Context, ref string) string {
	res, err := s.git.Run(ctx, "describe", "--tags", "--abbrev=0", ref)
	if err != nil {
		return messages.UnknownVersion
	}
	tag := strings.TrimSpace(res.Stdout)
	if idx := strings.LastIndex(tag, "-v"); idx >= 0 {
		return tag[idx+2:]
	}
	if trimmed := strings.TrimPrefix(tag, "v"); trimmed != "" {
		return trimmed
	}
	return messages.UnknownVersion
}

// fetchBranch updates the remote-tracking ref of branch. A remote that answers without the
// branch drops any stale tracking ref.
func (s *Store) fetchBranch(ctx context.Context, branch string) (remoteState, error) {
	if !s.hasRemote(ctx) {
		return remoteNone, nil
	}
	refspec := "+" + localRef(branch) + ":" + s.trackingRef(branch)
	_, err := s.git.Run(ctx, "fetch", "-q", s.remote, refspec)
	if err == nil {
		return remotePresent, nil
	}
	if stderrContains(err, "couldn't find remote ref") {
		_, _ = s.git.Run(ctx, "update-ref", "-d", s.trackingRef(branch))
		return remoteAbsent, nil
	}
	s.log.Warn("remote unreachable", "remote", s.remote, "branch", branch, "error", err)
	return remoteUnreachable, err
}

// freshest picks the ref to read branch from, or "" when none exists.
func (s *Store) freshest(ctx context.Context, branch string, state remoteState) string {
	local := s.refExists(ctx, localRef(branch))
	tracking := state == remotePresent && s.refExists(ctx, s.trackingRef(branch))
	switch {
	case local && tracking:
		if s.isAncestor(ctx, localRef(branch), s.trackingRef(branch)) {
			return s.trackingRef(branch)
		}
		return localRef(branch)
	case tracking:
		return s.trackingRef(branch)
	case local:
		return localRef(branch)
	}
	return ""
}

func (s *Store) hasRemote(ctx context.Context) bool {
	_, err := s.git.Run(ctx, "remote", "get-url", s.remote)
	return err == nil
}

func (s *Store) refExists(ctx context.Context, ref string) bool {
	_, err := s.git.Run(ctx, "rev-parse", "--verify", "-q", ref+"^{commit}")
	return err == nil
}

func (s *Store) isAncestor(ctx context.Context, ancestor string, descendant string) bool {
	_, err := s.git.Run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	return err == nil
}

func (s *Store) trackingRef(branch string) string {
	return "refs/remotes/" + s.remote + "/" + branch
}

func (s *Store) branchName(ctx context.Context) string {
	name, _ := s.CurrentBranch(ctx)
	return name
}

func localRef(branch string) string {
	return "refs/heads/" + branch
}

func vcsError(stage syncerr.Stage, branch string, err error) error {
	return &syncerr.VCSError{Stage: stage, Branch: branch, Err: err}
}
