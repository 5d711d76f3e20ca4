// Package buildenv describes the enclosing build environment a manifest is
// resolved against: values inherited from the host build tool and the
// signing profiles it declares.
package buildenv

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envPrefix is stripped from every variable read by FromEnviron.
const envPrefix = "APPFORGE_"

// DefaultHostNamespace is the name manifests use to reference inherited
// values, as in "flutter.versionCode".
const DefaultHostNamespace = "flutter"

// Values holds scalar values inherited from the host build tool.
// Zero values mean "not provided".
type Values struct {
	HostNamespace          string `env:"HOST_NAMESPACE" envDefault:"flutter"`
	VersionCode            int    `env:"VERSION_CODE"`
	VersionName            string `env:"VERSION_NAME"`
	MinPlatformVersion     int    `env:"MIN_SDK"`
	TargetPlatformVersion  int    `env:"TARGET_SDK"`
	CompilePlatformVersion int    `env:"COMPILE_SDK"`
	ToolchainVersion       string `env:"NDK_VERSION"`
}

// Environment is passed to the resolver explicitly. Nothing in the resolver
// reads process state on its own.
type Environment struct {
	Values
	Profiles ProfileStore
}

// New returns an environment with the default host namespace and only the
// debug signing profile declared.
func New() Environment {
	return Environment{
		Values:   Values{HostNamespace: DefaultHostNamespace},
		Profiles: DefaultProfiles(),
	}
}

// FromEnviron builds an Environment from KEY=VALUE pairs (typically
// os.Environ()). Signing profiles declared through APPFORGE_SIGNING_* are
// chained after the built-in debug profile.
func FromEnviron(environ []string) (Environment, error) {
	var v Values
	err := env.ParseWithOptions(&v, env.Options{
		Environment: env.ToMap(environ),
		Prefix:      envPrefix,
	})
	if err != nil {
		return Environment{}, fmt.Errorf("parsing build environment: %w", err)
	}

	declared, err := EnvProfiles(environ)
	if err != nil {
		return Environment{}, err
	}

	return Environment{
		Values:   v,
		Profiles: ChainProfiles{DefaultProfiles(), declared},
	}, nil
}

// Namespace returns the host namespace, falling back to the default.
func (e Environment) Namespace() string {
	if e.HostNamespace == "" {
		return DefaultHostNamespace
	}
	return e.HostNamespace
}

// inheritedKeys maps every name a manifest may use after the host namespace
// to an accessor on Values. Both the host tool's spelling and the canonical
// descriptor field name are accepted.
var inheritedKeys = map[string]func(Values) (any, bool){
	"versionCode":            func(v Values) (any, bool) { return v.VersionCode, v.VersionCode != 0 },
	"versionName":            func(v Values) (any, bool) { return v.VersionName, v.VersionName != "" },
	"minSdkVersion":          func(v Values) (any, bool) { return v.MinPlatformVersion, v.MinPlatformVersion != 0 },
	"minPlatformVersion":     func(v Values) (any, bool) { return v.MinPlatformVersion, v.MinPlatformVersion != 0 },
	"targetSdkVersion":       func(v Values) (any, bool) { return v.TargetPlatformVersion, v.TargetPlatformVersion != 0 },
	"targetPlatformVersion":  func(v Values) (any, bool) { return v.TargetPlatformVersion, v.TargetPlatformVersion != 0 },
	"compileSdkVersion":      func(v Values) (any, bool) { return v.CompilePlatformVersion, v.CompilePlatformVersion != 0 },
	"compilePlatformVersion": func(v Values) (any, bool) { return v.CompilePlatformVersion, v.CompilePlatformVersion != 0 },
	"ndkVersion":             func(v Values) (any, bool) { return v.ToolchainVersion, v.ToolchainVersion != "" },
	"toolchainVersion":       func(v Values) (any, bool) { return v.ToolchainVersion, v.ToolchainVersion != "" },
}

// IsInheritable reports whether key names a value the environment can supply.
func IsInheritable(key string) bool {
	_, ok := inheritedKeys[key]
	return ok
}

// Inherited returns the value for key and whether the environment sets it.
func (e Environment) Inherited(key string) (any, bool) {
	get, ok := inheritedKeys[key]
	if !ok {
		return nil, false
	}
	return get(e.Values)
}
