package messages

// Config messages for loading and validating .github/wpsync.toml.
const (
	ConfigValidationLabel = "config validation failed"

	// ConfigMissingFileFmt takes the configuration sentinel, the path and the cause.
	ConfigMissingFileFmt      = "%w: missing config file %s: %w"
	ConfigInvalidFmt          = "%w: invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "%w: %s: unrecognized keys %s; remove them or fix their spelling"
	ConfigExpandPathFmt       = "expand config path %s: %v"

	ConfigPositiveIntFmt      = "%s: %s must be a positive integer"
	ConfigInvalidURLFmt       = "%s: %s must be an http(s) URL (got %q)"
	ConfigInvalidTagPrefixFmt = "%s: %s %q is not usable in a git tag name"
	ConfigTagPrefixesEqualFmt = "%s: tags.free_prefix and tags.licensed_prefix must differ (both %q)"
	ConfigAuthorIncompleteFmt = "%s: git.author_name and git.author_email must be set together"
	ConfigGuardPathFmt        = "%s: guard.paths[%d]: %v"
)
