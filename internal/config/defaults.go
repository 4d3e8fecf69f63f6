package config

import (
	"github.com/conn-castle/wpsync/internal/artifact"
	"github.com/conn-castle/wpsync/internal/composer"
	"github.com/conn-castle/wpsync/internal/gitstore"
	"github.com/conn-castle/wpsync/internal/upstream"
)

const (
	DefaultTarget         = "master"
	DefaultFreePrefix     = "free"
	DefaultLicensedPrefix = "pro"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Git: GitConfig{
			Remote: gitstore.DefaultRemote,
			Target: DefaultTarget,
		},
		Download: DownloadConfig{
			MaxMB:          int(artifact.DefaultMaxBytes >> 20),
			TimeoutSeconds: int(artifact.DefaultTimeout.Seconds()),
		},
		WordPress: WordPressConfig{
			APIBase:      upstream.DefaultWordPressAPIBase,
			DownloadBase: upstream.DefaultWordPressDownloadBase,
		},
		Tags: TagsConfig{
			FreePrefix:     DefaultFreePrefix,
			LicensedPrefix: DefaultLicensedPrefix,
		},
		Composer: ComposerConfig{
			Vendor: composer.DefaultVendor,
		},
	}
}
