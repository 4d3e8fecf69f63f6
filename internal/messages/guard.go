package messages

// Guard and merge planning messages.
const (
	GuardPatternAbsoluteFmt = "guarded path %q must be relative to the checkout root"
	GuardPatternEmptyFmt    = "guarded path %q does not name anything below the checkout root"
	GuardPatternEscapesFmt  = "guarded path %q escapes the checkout root"

	MergeInsufficientBranchesFmt = "need at least 2 branches to merge (got %d); use git checkout for a single branch"
	MergeEmptyBranchName         = "branch names must not be empty"
	MergeTargetIsSourceFmt       = "target branch %q cannot also be merged into itself"
	MergeMissingTarget           = "target branch is required"
	MergeCommitPrefix            = "Merge "
	MergeCommitPartFmt           = "%s v%s"
	MergeCommitJoin              = " + "

	ReplaceEmptyArtifactFmt = "artifact %s contained no files to install; the tree now holds only guarded paths"
)
