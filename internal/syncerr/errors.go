// Package syncerr defines the error taxonomy shared by the sync, install and merge
// operations. Every error carries enough context (branch, stage, path) for a caller
// to decide whether a retry makes sense; nothing in wpsync retries on its own.
package syncerr

import (
	"errors"
	"fmt"

	"github.com/conn-castle/wpsync/internal/messages"
)

// ErrConfiguration marks non-retryable configuration problems.
var ErrConfiguration = errors.New(messages.ErrConfigurationLabel)

// ErrNoUpdateAvailable reports that an upstream answered but carried no usable version.
var ErrNoUpdateAvailable = errors.New(messages.ErrNoUpdateAvailableLabel)

// ErrUpstreamUnreachable reports that an upstream could not be contacted.
var ErrUpstreamUnreachable = errors.New(messages.ErrUpstreamUnreachableLabel)

// Stage names the step of a version-control operation that failed.
type Stage string

const (
	StageCheckout Stage = "checkout"
	StageFetch    Stage = "fetch"
	StageSync     Stage = "sync"
	StageStatus   Stage = "status"
	StageCommit   Stage = "commit"
	StageTag      Stage = "tag"
	StagePush     Stage = "push"
	StageExport   Stage = "export"
	StageRead     Stage = "read"
)

// ConfigError is a descriptive configuration failure.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientBranchesError is returned when a merge plan names fewer than two branches.
type InsufficientBranchesError struct {
	Got int
}

func (e *InsufficientBranchesError) Error() string {
	return fmt.Sprintf(messages.MergeInsufficientBranchesFmt, e.Got)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *InsufficientBranchesError) Is(target error) bool {
	return target == ErrConfiguration
}

// UpstreamError wraps a version-check failure for one source.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf(messages.UpstreamErrorFmt, e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed artifact download.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf(messages.FetchErrorFmt, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a corrupt or unusable archive.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf(messages.ExtractionErrorFmt, e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// VCSError reports a failed git operation on a branch.
type VCSError struct {
	Stage  Stage
	Branch string
	Err    error
}

func (e *VCSError) Error() string {
	if e.Branch == "" {
		return fmt.Sprintf(messages.VCSErrorNoBranchFmt, e.Stage, e.Err)
	}
	return fmt.Sprintf(messages.VCSErrorFmt, e.Stage, e.Branch, e.Err)
}

func (e *VCSError) Unwrap() error {
	return e.Err
}

// BranchResolutionError is returned when a branch exists neither locally nor on a reachable remote.
// Missing is set when the remote answered and does not carry the branch either.
type BranchResolutionError struct {
	Branch  string
	Missing bool
	Err     error
}

func (e *BranchResolutionError) Error() string {
	if e.Missing {
		return fmt.Sprintf(messages.BranchMissingFmt, e.Branch)
	}
	if e.Err == nil {
		return fmt.Sprintf(messages.BranchResolutionFmt, e.Branch)
	}
	return fmt.Sprintf(messages.BranchResolutionCauseFmt, e.Branch, e.Err)
}

func (e *BranchResolutionError) Unwrap() error {
	return e.Err
}

// PushError reports a push failure. The branch is committed locally but not pushed,
// so a caller may retry just the push.
type PushError struct {
	Branch string
	Err    error
}

func (e *PushError) Error() string {
	return fmt.Sprintf(messages.PushErrorFmt, e.Branch, e.Err)
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// PushConflictError reports a push rejected as non-fast-forward. No rebase is attempted.
type PushConflictError struct {
	Branch string
	Err    error
}

func (e *PushConflictError) Error() string {
	return fmt.Sprintf(messages.PushConflictFmt, e.Branch, e.Err)
}

func (e *PushConflictError) Unwrap() error {
	return e.Err
}

// FilesystemError reports a failed guard snapshot, restore or tree mutation.
// Retained is set when a snapshot holding area was kept for manual recovery.
type FilesystemError struct {
	Op       string
	Path     string
	Retained string
	Err      error
}

func (e *FilesystemError) Error() string {
	if e.Retained != "" {
		return fmt.Sprintf(messages.FilesystemErrorRetainedFmt, e.Op, e.Path, e.Err, e.Retained)
	}
	return fmt.Sprintf(messages.FilesystemErrorFmt, e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Exit codes returned by the CLI for each error class.
const (
	ExitOK           = 0
	ExitOther        = 1
	ExitConfig       = 2
	ExitUpstream     = 3
	ExitFetch        = 4
	ExitVCS          = 5
	ExitPush         = 6
	ExitPushConflict = 7
	ExitFilesystem   = 8
)

// ExitCode maps err onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		pushConflict *PushConflictError
		push         *PushError
		fsErr        *FilesystemError
		fetch        *FetchError
		extract      *ExtractionError
		upstream     *UpstreamError
		vcs          *VCSError
		resolve      *BranchResolutionError
	)
	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitConfig
	case errors.As(err, &pushConflict):
		return ExitPushConflict
	case errors.As(err, &push):
		return ExitPush
	case errors.As(err, &fsErr):
		return ExitFilesystem
	case errors.As(err, &fetch), errors.As(err, &extract):
		return ExitFetch
	case errors.As(err, &upstream), errors.Is(err, ErrNoUpdateAvailable), errors.Is(err, ErrUpstreamUnreachable):
		return ExitUpstream
	case errors.As(err, &vcs), errors.As(err, &resolve):
		return ExitVCS
	}
	return ExitOther
}
