package messages

// Install messages.
const (
	InstallMissingBranch      = "storage branch is required"
	InstallMissingArtifact    = "artifact root is required"
	InstallMissingMessage     = "commit message is required"
	InstallMissingSlugVersion = "plugin slug and version are required"
	InstallMissingURL         = "download url is required"

	InstallWordPressMessageFmt = "Update %s to version %s"
	InstallLicensedMessageFmt  = "Update to version %s"
	// ReleaseTagFmt takes the tag prefix and the version.
	ReleaseTagFmt = "%s-v%s"
)
