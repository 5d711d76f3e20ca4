package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/appforge/src/descriptor"
)

// Machine-readable descriptor encodings.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Formats lists the encodings accepted by Encode.
var Formats = []string{FormatYAML, FormatJSON, FormatTOML}

// Named pairs a descriptor with the manifest it came from.
type Named struct {
	Path       string
	Descriptor descriptor.BuildDescriptor
}

// Encode writes descriptors to w. A single descriptor is written bare; several
// are written as YAML documents, or as a JSON object / TOML tables keyed by
// manifest path.
func Encode(w io.Writer, format string, items []Named) error {
	switch format {
	case FormatYAML, "":
		return encodeYAML(w, items)
	case FormatJSON:
		return encodeJSON(w, items)
	case FormatTOML:
		return encodeTOML(w, items)
	default:
		return fmt.Errorf("unknown output format %q (expected yaml, json or toml)", format)
	}
}

func encodeYAML(w io.Writer, items []Named) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, it := range items {
		if err := enc.Encode(it.Descriptor); err != nil {
			return fmt.Errorf("encoding %s as yaml: %w", it.Path, err)
		}
	}
	return enc.Close()
}

func encodeJSON(w io.Writer, items []Named) error {
	var v any
	if len(items) == 1 {
		v = items[0].Descriptor
	} else {
		v = byPath(items)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func encodeTOML(w io.Writer, items []Named) error {
	var v any
	if len(items) == 1 {
		v = items[0].Descriptor
	} else {
		v = byPath(items)
	}
	if err := toml.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding toml: %w", err)
	}
	return nil
}

func byPath(items []Named) map[string]descriptor.BuildDescriptor {
	m := make(map[string]descriptor.BuildDescriptor, len(items))
	for _, it := range items {
		m[it.Path] = it.Descriptor
	}
	return m
}
