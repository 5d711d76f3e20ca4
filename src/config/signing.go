package config

// SigningConfig declares the signing profiles available to manifests,
// in addition to the built-in debug profile and APPFORGE_SIGNING_* variables.
type SigningConfig struct {
	Profiles map[string]SigningProfileConfig `yaml:"profiles"`
}

// SigningProfileConfig declares one profile.
type SigningProfileConfig struct {
	// Credentials is the env var prefix for the keystore:
	// {PREFIX}_KEYSTORE, {PREFIX}_KEY_ALIAS, {PREFIX}_STORE_PASSWORD, {PREFIX}_KEY_PASSWORD.
	Credentials string `yaml:"credentials,omitempty"`

	// Keystore is a literal keystore path, used when Credentials is empty.
	Keystore string `yaml:"keystore,omitempty"`

	// KeyAlias is the key alias inside the keystore.
	KeyAlias string `yaml:"key_alias,omitempty"`
}

// DefaultSigningConfig returns an empty signing config.
func DefaultSigningConfig() SigningConfig {
	return SigningConfig{
		Profiles: map[string]SigningProfileConfig{},
	}
}
