package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// EnvConfigPath overrides the config file location when --config is not given.
const EnvConfigPath = "WPSYNC_CONFIG"

// DefaultRelPath is the config location relative to the checkout root. It lives
// under a locked path so replaces and merges never drop it.
var DefaultRelPath = filepath.Join(".github", "wpsync.toml")

// ErrConfigValidation wraps validation failures (as opposed to TOML syntax or
// filesystem errors). It also matches syncerr.ErrConfiguration.
var ErrConfigValidation = fmt.Errorf("%w: %s", syncerr.ErrConfiguration, messages.ConfigValidationLabel)

// ResolvePath picks the config file: the flag value, then $WPSYNC_CONFIG, then the
// default under root. explicit reports whether the user named the file.
func ResolvePath(flagValue string, root string) (path string, explicit bool, err error) {
	raw := strings.TrimSpace(flagValue)
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if raw == "" {
		return filepath.Join(root, DefaultRelPath), false, nil
	}
	expanded, err := homedir.Expand(raw)
	if err != nil {
		return "", true, syncerr.Configf(messages.ConfigExpandPathFmt, raw, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(root, expanded)
	}
	return expanded, true, nil
}

// Load reads the config at path. A missing file yields the defaults unless the
// path was named explicitly.
func Load(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf(messages.ConfigMissingFileFmt, syncerr.ErrConfiguration, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults, rejecting unknown keys, and validates the result.
// source is used in error messages.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf(messages.ConfigUnrecognizedKeysFmt, ErrConfigValidation, source, strict.String())
		}
		return nil, fmt.Errorf(messages.ConfigInvalidFmt, syncerr.ErrConfiguration, source, err)
	}
	cfg.normalize()
	if err := cfg.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}

// normalize trims whitespace and restores defaults for fields set to empty strings.
func (c *Config) normalize() {
	def := Default()
	fill := func(v *string, fallback string) {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			*v = fallback
		}
	}
	fill(&c.Git.Remote, def.Git.Remote)
	fill(&c.Git.Target, def.Git.Target)
	c.Git.AuthorName = strings.TrimSpace(c.Git.AuthorName)
	c.Git.AuthorEmail = strings.TrimSpace(c.Git.AuthorEmail)
	fill(&c.WordPress.APIBase, def.WordPress.APIBase)
	fill(&c.WordPress.DownloadBase, def.WordPress.DownloadBase)
	fill(&c.Tags.FreePrefix, def.Tags.FreePrefix)
	fill(&c.Tags.LicensedPrefix, def.Tags.LicensedPrefix)
	fill(&c.Composer.Vendor, def.Composer.Vendor)
	c.WordPress.APIBase = strings.TrimRight(c.WordPress.APIBase, "/")
	c.WordPress.DownloadBase = strings.TrimRight(c.WordPress.DownloadBase, "/")
}
