package messages

// Composer manifest messages.
const (
	ComposerInvalidNameFmt = "composer %s %q must be lowercase letters, digits and single separators"
	ComposerMissingVersion = "composer version is required"
	ComposerInvalidTypeFmt = "composer type %q must be %s or %s"
	ComposerEncodeFmt      = "encode composer.json: %w"
	ComposerWrittenFmt     = "Wrote %s\n"
)
