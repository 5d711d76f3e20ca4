package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MigrateToLatest takes raw YAML data and migrates it to the current schema version.
// Returns the migrated YAML bytes ready for writing.
//
// Migration chain:
//
//	version 0 (unversioned) → 1: signing_profiles list becomes signing.profiles,
//	                            top-level format moves to output.format
//	version 1 → current (no-op, already latest)
func MigrateToLatest(data []byte) ([]byte, error) {
	ver, err := peekVersion(data)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	switch ver {
	case LatestVersion:
		return data, nil
	case 0:
		return migrateV0(data)
	default:
		return nil, fmt.Errorf("migrate: unknown config version %d (latest supported: %d)", ver, LatestVersion)
	}
}

// peekVersion extracts the version field from raw YAML without full parsing.
// Returns 0 if no version field is present.
func peekVersion(data []byte) (int, error) {
	var probe struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("reading version: %w", err)
	}
	return probe.Version, nil
}

// v0Config is the unversioned layout.
type v0Config struct {
	Manifests       []string      `yaml:"manifests"`
	Strict          bool          `yaml:"strict"`
	SigningProfiles []string      `yaml:"signing_profiles"`
	Format          string        `yaml:"format"`
	Resolve         ResolveConfig `yaml:"resolve"`
}

func migrateV0(data []byte) ([]byte, error) {
	var old v0Config
	if err := yaml.Unmarshal(data, &old); err != nil {
		return nil, fmt.Errorf("migrate: parsing version 0 config: %w", err)
	}

	cfg := Defaults()
	if len(old.Manifests) > 0 {
		cfg.Manifests = old.Manifests
	}
	cfg.Resolve = old.Resolve
	if cfg.Resolve.VersionNameTemplate == "" {
		cfg.Resolve.VersionNameTemplate = DefaultResolveConfig().VersionNameTemplate
	}
	cfg.Resolve.Strict = cfg.Resolve.Strict || old.Strict
	for _, name := range old.SigningProfiles {
		if name == "debug" {
			continue
		}
		cfg.Signing.Profiles[name] = SigningProfileConfig{}
	}
	if old.Format != "" {
		cfg.Output.Format = old.Format
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return out, nil
}
