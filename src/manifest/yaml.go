package manifest

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// inheritTag marks a scalar as an inherited reference: versionCode: !inherit versionCode
const inheritTag = "!inherit"

// decodeYAML walks the node tree instead of unmarshalling into a map so
// float literals keep their spelling. JSON documents go through here too.
func decodeYAML(data []byte) (Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	m := Manifest{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return m, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest: line %d: root must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if _, dup := m[key.Value]; dup {
			return nil, fmt.Errorf("manifest: line %d: duplicate key %q", key.Line, key.Value)
		}
		v, err := yamlValue(val)
		if err != nil {
			return nil, fmt.Errorf("manifest: line %d: %s: %w", val.Line, key.Value, err)
		}
		m[key.Value] = v
	}
	return m, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if n.Tag == inheritTag {
		return Ref{Key: n.Value}, nil
	}

	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		if i, err := strconv.Atoi(n.Value); err == nil {
			return i, nil
		}
		return Number(n.Value), nil
	case "!!float":
		return Number(n.Value), nil
	default:
		return n.Value, nil
	}
}
