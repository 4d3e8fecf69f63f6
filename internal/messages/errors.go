package messages

// Error taxonomy messages.
const (
	// ErrConfigurationLabel is the text of the configuration sentinel.
	ErrConfigurationLabel       = "configuration error"
	ErrNoUpdateAvailableLabel   = "no update available"
	ErrUpstreamUnreachableLabel = "upstream unreachable"

	UpstreamErrorFmt   = "check %s: %v"
	FetchErrorFmt      = "download %s: %v"
	ExtractionErrorFmt = "extract %s: %v"

	VCSErrorFmt              = "git %s on branch %s: %v"
	VCSErrorNoBranchFmt      = "git %s: %v"
	BranchResolutionFmt      = "branch %s not found locally and the remote is unreachable"
	BranchResolutionCauseFmt = "branch %s not found locally and the remote is unreachable: %v"
	BranchMissingFmt         = "branch %s exists neither locally nor on the remote"
	PushErrorFmt             = "push %s failed; the branch is committed locally but not pushed: %v"
	PushConflictFmt          = "push %s rejected (non-fast-forward); the branch is committed locally but not pushed: %v"

	FilesystemErrorFmt         = "%s %s: %v"
	FilesystemErrorRetainedFmt = "%s %s: %v (guarded content kept at %s)"
)
