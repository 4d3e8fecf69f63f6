package messages

// Upstream version check and artifact fetch messages.
const (
	UpstreamWordPressSourceFmt = "wordpress.org plugin %s"
	UpstreamLicenseSourceFmt   = "license api %s"
	UpstreamCreateRequestFmt   = "create request: %w"
	UpstreamRequestFailedFmt   = "%w: %w"
	UpstreamStatusFmt          = "%w: unexpected status %s"
	UpstreamNotFoundFmt        = "%w: %s returned %s"
	UpstreamDecodeFmt          = "decode response: %w"
	UpstreamAPIErrorFmt        = "%w: %s"
	UpstreamNoVersion          = "response carries no version"
	UpstreamNoPackage          = "response carries no version with a download package"
	UpstreamMissingFieldFmt    = "%s is required"

	FetchCreateRequestFmt = "create request: %w"
	FetchStatusFmt        = "unexpected status %s"
	FetchTooLargeFmt      = "download exceeds %d bytes"
	FetchTempFileFmt      = "create temp file: %w"
	FetchWriteFmt         = "write download: %w"
	FetchDownloadingFmt   = "Downloading %s\n"

	ExtractEmptyArchive   = "archive contains no files"
	ExtractUnsafePathFmt  = "entry %q escapes the extraction directory"
	ExtractOpenEntryFmt   = "open entry %s: %w"
	ExtractWriteEntryFmt  = "write entry %s: %w"
	ExtractUnsupportedFmt = "entry %s has unsupported type %s"
)
