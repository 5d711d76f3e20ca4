// Package config loads and validates .appforge.yml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = ".appforge.yml"

// LatestVersion is the current config schema version.
const LatestVersion = 1

// Config is the top-level appforge configuration.
type Config struct {
	Version   int           `yaml:"version"`
	Manifests []string      `yaml:"manifests"`
	Resolve   ResolveConfig `yaml:"resolve"`
	Signing   SigningConfig `yaml:"signing"`
	Output    OutputConfig  `yaml:"output"`
	Secrets   SecretsConfig `yaml:"secrets"`
	Badges    BadgesConfig  `yaml:"badges"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns defaults if the file doesn't exist. Unversioned files are refused
// until migrated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, err
	}

	ver, err := peekVersion(data)
	if err != nil {
		return nil, err
	}
	if ver == 0 {
		return nil, fmt.Errorf("%s has no version field; run 'appforge migrate' to upgrade it", path)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Version:   LatestVersion,
		Manifests: []string{"android/app/build.gradle.kts"},
		Resolve:   DefaultResolveConfig(),
		Signing:   DefaultSigningConfig(),
		Output:    DefaultOutputConfig(),
		Secrets:   DefaultSecretsConfig(),
		Badges:    DefaultBadgesConfig(),
	}
}
