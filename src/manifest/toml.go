package manifest

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

func decodeTOML(data []byte) (Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	m := make(Manifest, len(raw))
	for k, v := range raw {
		// go-toml decodes integers as int64
		if i, ok := v.(int64); ok {
			m[k] = int(i)
			continue
		}
		m[k] = v
	}
	return m, nil
}
