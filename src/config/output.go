package config

// OutputConfig controls how resolved descriptors are written.
type OutputConfig struct {
	// Format is the descriptor encoding: yaml, json or toml.
	Format string `yaml:"format"`

	// JUnitDir, when set, receives a JUnit XML report of the run.
	JUnitDir string `yaml:"junit_dir,omitempty"`
}

// DefaultOutputConfig returns the default output settings.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{Format: "yaml"}
}

// SecretsConfig controls the inline-secret scan of manifest files.
type SecretsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultSecretsConfig enables the scan.
func DefaultSecretsConfig() SecretsConfig {
	return SecretsConfig{Enabled: true}
}

// BadgesConfig controls SVG badge rendering.
type BadgesConfig struct {
	// Dir receives the generated SVG files.
	Dir string `yaml:"dir"`

	FontSize float64 `yaml:"font_size"`

	// FontFile replaces the built-in Go Regular face with a TTF/OTF on disk.
	FontFile string `yaml:"font_file,omitempty"`

	// Color overrides the value-side color of every badge (e.g. "#007ec6").
	Color string `yaml:"color,omitempty"`
}

// DefaultBadgesConfig returns the default badge settings.
func DefaultBadgesConfig() BadgesConfig {
	return BadgesConfig{Dir: ".appforge/badges", FontSize: 11}
}
