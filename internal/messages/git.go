package messages

// Git store messages.
const (
	GitNotFoundFmt        = "no 'git' program on PATH: %w"
	GitExecErrorFmt       = "git %s: %v"
	GitExecErrorStderrFmt = "git %s: %v: %s"
	GitNoRemoteFmt        = "no remote %q is configured"
	GitNotRepositoryFmt   = "%s is not a git checkout (missing .git)"
	GitDirLineMissingFmt  = "no gitdir line in %s"
	GitLockOpenFmt        = "open lock %s: %w"
	GitLockFmt            = "lock %s: %w"
	GitLockTimeoutFmt     = "another wpsync run holds the checkout lock (waited %s)"

	SyncPathsCommitFmt = "Sync locked paths from %s"
	UnknownVersion     = "unknown"
)
