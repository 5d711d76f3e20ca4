package buildenv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

const signingPrefix = envPrefix + "SIGNING_"

// SigningProfile is a named credential set used to sign a package.
// Secrets never leave the store; only their presence is reported.
type SigningProfile struct {
	Name           string
	Keystore       string
	KeyAlias       string
	HasCredentials bool
}

// ProfileStore resolves signing profile names.
type ProfileStore interface {
	Lookup(name string) (SigningProfile, bool)
}

// StaticProfiles is a fixed set of declared profiles keyed by name.
type StaticProfiles map[string]SigningProfile

// Lookup implements ProfileStore.
func (s StaticProfiles) Lookup(name string) (SigningProfile, bool) {
	p, ok := s[name]
	return p, ok
}

// Names returns the declared profile names, sorted.
func (s StaticProfiles) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ChainProfiles consults each store in order; the first hit wins.
type ChainProfiles []ProfileStore

// Lookup implements ProfileStore.
func (c ChainProfiles) Lookup(name string) (SigningProfile, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if p, ok := s.Lookup(name); ok {
			return p, true
		}
	}
	return SigningProfile{}, false
}

// DefaultProfiles declares the debug profile every host build tool provides.
func DefaultProfiles() StaticProfiles {
	return StaticProfiles{
		"debug": {
			Name:           "debug",
			Keystore:       "~/.android/debug.keystore",
			KeyAlias:       "androiddebugkey",
			HasCredentials: true,
		},
	}
}

// profileVars is the per-profile variable set, read under a prefix.
type profileVars struct {
	Keystore      string `env:"KEYSTORE"`
	KeyAlias      string `env:"KEY_ALIAS"`
	StorePassword string `env:"STORE_PASSWORD"`
	KeyPassword   string `env:"KEY_PASSWORD"`
}

// CredentialProfile reads a profile from {PREFIX}_KEYSTORE, {PREFIX}_KEY_ALIAS,
// {PREFIX}_STORE_PASSWORD and {PREFIX}_KEY_PASSWORD.
func CredentialProfile(name, prefix string, environ []string) (SigningProfile, error) {
	var v profileVars
	err := env.ParseWithOptions(&v, env.Options{
		Environment: env.ToMap(environ),
		Prefix:      strings.TrimSuffix(prefix, "_") + "_",
	})
	if err != nil {
		return SigningProfile{}, fmt.Errorf("signing profile %s: %w", name, err)
	}
	return SigningProfile{
		Name:           name,
		Keystore:       v.Keystore,
		KeyAlias:       v.KeyAlias,
		HasCredentials: v.StorePassword != "" && v.KeyPassword != "",
	}, nil
}

// EnvProfiles declares one profile per APPFORGE_SIGNING_<NAME>_KEYSTORE
// variable present in environ.
func EnvProfiles(environ []string) (StaticProfiles, error) {
	profiles := StaticProfiles{}
	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, signingPrefix) || !strings.HasSuffix(key, "_KEYSTORE") {
			continue
		}
		upper := strings.TrimSuffix(strings.TrimPrefix(key, signingPrefix), "_KEYSTORE")
		if upper == "" {
			continue
		}
		name := strings.ToLower(upper)
		p, err := CredentialProfile(name, signingPrefix+upper, environ)
		if err != nil {
			return nil, err
		}
		profiles[name] = p
	}
	return profiles, nil
}
