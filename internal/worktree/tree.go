// Package worktree identifies the checkout wpsync mutates and serializes access to it.
package worktree

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// LockFileName is created inside the git directory.
const LockFileName = "wpsync.lock"

// Tree is a git checkout: a root directory and the git directory it uses.
type Tree struct {
	Root   string
	GitDir string

	lock *os.File
}

var (
	flockFn   = unix.Flock
	lockSleep = time.Sleep

	lockWaitTimeout = 10 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// Open resolves root (absolute, symlinks evaluated) and its git directory. A .git file
// pointing elsewhere, as in linked worktrees and submodules, is followed.
func Open(root string) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &syncerr.FilesystemError{Op: "resolve", Path: root, Err: err}
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	dotGit := filepath.Join(abs, fsutil.VCSDir)
	info, err := os.Stat(dotGit)
	if err != nil {
		return nil, syncerr.Configf(messages.GitNotRepositoryFmt, abs)
	}
	if info.IsDir() {
		return &Tree{Root: abs, GitDir: dotGit}, nil
	}
	gitDir, err := readGitFile(dotGit)
	if err != nil {
		return nil, syncerr.Configf(messages.GitNotRepositoryFmt, abs)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(abs, gitDir)
	}
	return &Tree{Root: abs, GitDir: filepath.Clean(gitDir)}, nil
}

func readGitFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "gitdir:"); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf(messages.GitDirLineMissingFmt, path)
}

// Lock takes the single-writer lock of the checkout: an exclusive flock on LockFileName in
// the git directory, polled until lockWaitTimeout passes.
func (t *Tree) Lock() error {
	if t.lock != nil {
		return nil
	}
	path := filepath.Join(t.GitDir, LockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf(messages.GitLockOpenFmt, path, err)
	}
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			_ = file.Close()
			return fmt.Errorf(messages.GitLockFmt, path, err)
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return fmt.Errorf(messages.GitLockFmt, path, fmt.Errorf(messages.GitLockTimeoutFmt, lockWaitTimeout))
		}
		lockSleep(lockPollEvery)
	}
	t.lock = file
	return nil
}

// Unlock releases the lock taken by Lock.
func (t *Tree) Unlock() error {
	if t.lock == nil {
		return nil
	}
	file := t.lock
	t.lock = nil
	if err := flockFn(int(file.Fd()), unix.LOCK_UN); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WithLock runs fn while holding the checkout lock.
func (t *Tree) WithLock(fn func() error) error {
	if err := t.Lock(); err != nil {
		return err
	}
	defer func() {
		_ = t.Unlock()
	}()
	return fn()
}
