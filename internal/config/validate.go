package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/conn-castle/wpsync/internal/guard"
	"github.com/conn-castle/wpsync/internal/messages"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(source string) error {
	if c.Download.MaxMB <= 0 {
		return fmt.Errorf(messages.ConfigPositiveIntFmt, source, "download.max_mb")
	}
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf(messages.ConfigPositiveIntFmt, source, "download.timeout_seconds")
	}
	for key, raw := range map[string]string{
		"wordpress.api_base":      c.WordPress.APIBase,
		"wordpress.download_base": c.WordPress.DownloadBase,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf(messages.ConfigInvalidURLFmt, source, key, raw)
		}
	}
	for key, prefix := range map[string]string{
		"tags.free_prefix":     c.Tags.FreePrefix,
		"tags.licensed_prefix": c.Tags.LicensedPrefix,
	} {
		if strings.ContainsAny(prefix, " ~^:?*[\\") {
			return fmt.Errorf(messages.ConfigInvalidTagPrefixFmt, source, key, prefix)
		}
	}
	if c.Tags.FreePrefix == c.Tags.LicensedPrefix {
		return fmt.Errorf(messages.ConfigTagPrefixesEqualFmt, source, c.Tags.FreePrefix)
	}
	if (c.Git.AuthorName == "") != (c.Git.AuthorEmail == "") {
		return fmt.Errorf(messages.ConfigAuthorIncompleteFmt, source)
	}
	for i, p := range c.Guard.Paths {
		if _, err := guard.Normalize(p); err != nil {
			return fmt.Errorf(messages.ConfigGuardPathFmt, source, i, err)
		}
	}
	return nil
}

// Patterns combines the built-in locked paths, [guard] paths and $LOCKED_PATHS.
func (c *Config) Patterns(getenv func(string) string) (guard.Patterns, error) {
	extra := append([]string(nil), c.Guard.Paths...)
	extra = append(extra, guard.ParseList(getenv(guard.EnvLockedPaths))...)
	return guard.NewPatterns(extra...)
}
