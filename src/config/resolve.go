package config

// ResolveConfig controls how manifests are turned into descriptors.
type ResolveConfig struct {
	// Strict rejects manifest keys the resolver does not know.
	Strict bool `yaml:"strict"`

	// FailFast reports only the first violation per manifest.
	FailFast bool `yaml:"fail_fast"`

	// HostNamespace is the prefix of inherited references ("flutter" in
	// flutter.versionCode). Overrides APPFORGE_HOST_NAMESPACE when set.
	HostNamespace string `yaml:"host_namespace,omitempty"`

	// ToolchainConstraint is a semver constraint the toolchain's
	// MAJOR.MINOR.PATCH must satisfy, e.g. ">= 26".
	ToolchainConstraint string `yaml:"toolchain_constraint,omitempty"`

	// MinPlatformFloor rejects minPlatformVersion values below it. 0 disables.
	MinPlatformFloor int `yaml:"min_platform_floor,omitempty"`

	// VersionFromGit fills unset versionName/versionCode from git tags and history.
	VersionFromGit bool `yaml:"version_from_git"`

	// VersionNameTemplate formats the git-derived versionName. Default: "{version}".
	VersionNameTemplate string `yaml:"version_name_template,omitempty"`

	// Jobs bounds concurrent manifest resolution. 0 means one per CPU.
	Jobs int `yaml:"jobs,omitempty"`
}

// DefaultResolveConfig returns the default resolve settings.
func DefaultResolveConfig() ResolveConfig {
	return ResolveConfig{
		VersionNameTemplate: "{version}",
	}
}
