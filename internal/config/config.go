// Package config loads the optional wpsync TOML file and merges it with the
// environment-provided locked paths.
package config

import "time"

// Config is the decoded wpsync configuration. Zero values are replaced by defaults.
type Config struct {
	Git       GitConfig       `toml:"git"`
	Guard     GuardConfig     `toml:"guard"`
	Download  DownloadConfig  `toml:"download"`
	WordPress WordPressConfig `toml:"wordpress"`
	Tags      TagsConfig      `toml:"tags"`
	Composer  ComposerConfig  `toml:"composer"`
}

// GitConfig controls the remote, merge target and commit identity.
type GitConfig struct {
	Remote      string `toml:"remote"`
	Target      string `toml:"target"`
	AuthorName  string `toml:"author_name"`
	AuthorEmail string `toml:"author_email"`
}

// GuardConfig lists locked paths in addition to the built-in defaults.
type GuardConfig struct {
	Paths []string `toml:"paths"`
}

// DownloadConfig bounds artifact downloads.
type DownloadConfig struct {
	MaxMB          int `toml:"max_mb"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// WordPressConfig points at the WordPress.org plugin API and download host.
type WordPressConfig struct {
	APIBase      string `toml:"api_base"`
	DownloadBase string `toml:"download_base"`
}

// TagsConfig holds the prefixes of release tags.
type TagsConfig struct {
	FreePrefix     string `toml:"free_prefix"`
	LicensedPrefix string `toml:"licensed_prefix"`
}

// ComposerConfig holds composer.json defaults.
type ComposerConfig struct {
	Vendor string `toml:"vendor"`
}

// MaxBytes returns the download cap in bytes.
func (c DownloadConfig) MaxBytes() int64 {
	return int64(c.MaxMB) << 20
}

// Timeout returns the per-download timeout.
func (c DownloadConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
