// Package manifest decodes declarative build manifests into the flat,
// untyped key/value form consumed by the descriptor resolver.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest is a raw key/value build manifest. Values are whatever the source
// format produced: strings, ints, bools, Number literals or Refs.
type Manifest map[string]any

// Keys returns the manifest keys, sorted.
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ref is a reference to a value inherited from the host build tool,
// e.g. flutter.versionCode. An empty Host means the environment's namespace.
type Ref struct {
	Host string
	Key  string
}

func (r Ref) String() string {
	if r.Host == "" {
		return r.Key
	}
	return r.Host + "." + r.Key
}

// Number is a numeric literal kept in its source spelling so that values
// like versionName: 1.0 survive decoding unchanged.
type Number string

// Format identifies a manifest encoding.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
	FormatHCL    Format = "hcl"
	FormatGradle Format = "gradle"
)

// FormatFor picks a format from a file name.
func FormatFor(path string) (Format, error) {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".gradle.kts"), strings.HasSuffix(base, ".gradle"):
		return FormatGradle, nil
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".kts":
		return FormatGradle, nil
	}
	return "", fmt.Errorf("manifest: cannot infer format of %s (supported: .yml, .yaml, .json, .toml, .hcl, .gradle, .gradle.kts)", path)
}

// Load reads and decodes the manifest at path.
func Load(path string) (Manifest, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses data in the given format.
func Decode(format Format, data []byte) (Manifest, error) {
	switch format {
	case FormatYAML, FormatJSON:
		return decodeYAML(data)
	case FormatTOML:
		return decodeTOML(data)
	case FormatHCL:
		return decodeHCL(data)
	case FormatGradle:
		return decodeGradle(data)
	default:
		return nil, fmt.Errorf("manifest: unknown format %q", format)
	}
}
