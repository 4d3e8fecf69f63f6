package messages

// CLI messages for user-facing commands.
const (
	// RootUse is the CLI command name.
	RootUse = "wpsync"
	// RootShort is the short description for the root command.
	RootShort = "Keep WordPress package branches in sync with their upstreams"
	RootLong  = `wpsync mirrors WordPress packages into long-lived git branches and composes them.

Storage branches hold one package source each (the free WordPress.org release, a
licensed pro build). The merge command layers them onto the target branch. Locked
paths (.git, .github, .gitignore and $LOCKED_PATHS) are never overwritten.`
	RootVersionFlag = "Print version and exit"
	RootFlagConfig  = "Config file (default .github/wpsync.toml, or $WPSYNC_CONFIG)"
	RootFlagRepo    = "Git checkout to operate on (default: current directory)"
	RootFlagVerbose = "Log git commands and timings to stderr"
	RootFlagNoColor = "Disable colored output"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	// ErrorLineFmt prefixes fatal errors on stderr.
	ErrorLineFmt   = "Error: %v"
	WarningLineFmt = "Warning: %s"

	CheckWordPressOrgUse   = "check-wordpress-org <slug>"
	CheckWordPressOrgShort = "Print the latest WordPress.org release of a plugin as JSON"
	CheckLicenseUse        = "check-license <api_url> <license_key> <basename> <product_name> <email> <domain> <instance>"
	CheckLicenseShort      = "Ask a license server for the latest licensed release and print it as JSON"

	PluginVersionUse        = "plugin-version [dir]"
	PluginVersionShort      = "Print the Version header of a plugin or theme"
	PluginVersionFlagBranch = "Read the version from a branch instead of a directory"

	IsNewerUse   = "is-newer <candidate> <current>"
	IsNewerShort = "Exit 0 when candidate is a newer version than current, 1 otherwise"
	IsNewerLong  = "Compare two versions. Semantic versions order pre-releases (alpha, beta.N, rc.N) below the release; four-part WordPress versions compare numerically."

	DownloadWordPressUse   = "download-wordpress <slug> <version> <branch>"
	DownloadWordPressShort = "Download a WordPress.org release and install it into a storage branch"
	DownloadLicensedUse    = "download-licensed <url> <branch>"
	DownloadLicensedShort  = "Download a licensed archive and install it into a storage branch"
	FlagNoPushInstall      = "Commit and tag locally without pushing"

	InstallUpToDateFmt  = "No changes: %s already holds version %s\n"
	InstallPushedFmt    = "Installed version %s into %s and pushed\n"
	InstallCommittedFmt = "Installed version %s into %s (not pushed)\n"

	MergeUse   = "merge <base-branch> <overlay-branch> [overlay-branch...]"
	MergeShort = "Layer storage branches onto the target branch"
	MergeLong  = `Rebuild the target branch from two or more storage branches.

The first branch is the base; each later branch overwrites same-path files of the
branches before it and never deletes. Locked paths of the target are kept as they are.
For a single branch use git checkout instead.`
	MergeFlagTarget         = "Branch to merge into (default from config, else master)"
	MergeFlagNoPush         = "Leave the merged tree uncommitted for an external step"
	MergeFlagTag            = "Tag to create on the merge commit"
	MergeFlagDiff           = "Print unified diffs of modified files"
	MergeUpToDateFmt        = "No changes: %s is up to date\n"
	MergePushedFmt          = "Merged into %s and pushed\n"
	MergeLeftUncommittedFmt = "Merged into %s; changes left uncommitted\n"

	ComposerUse             = "composer <name> <version> <wordpress-plugin|wordpress-theme>"
	ComposerShort           = "Write composer.json for a merged package"
	ComposerFlagDescription = "Package description"
	ComposerFlagVendor      = "Vendor namespace (default from config, else creatorincome)"
	ComposerFlagPath        = "Directory to write composer.json into (default: repo root)"
)
