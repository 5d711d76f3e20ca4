package descriptor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sofmeright/appforge/src/manifest"
)

// Manifests are untyped: the same field may arrive as an int from YAML, an
// int64 from TOML, a numeric literal, or a string from the environment.

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return asInt(int64(n))
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%d is out of range", n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%d is out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%v is out of range", n)
		}
		return int(n), nil
	case manifest.Number:
		return parseIntString(string(n))
	case string:
		return parseIntString(n)
	default:
		return 0, fmt.Errorf("expected an integer, got %s", typeName(v))
	}
}

func parseIntString(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return asInt(int64(i))
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case manifest.Number:
		return string(s), nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	default:
		return "", fmt.Errorf("expected a string, got %s", typeName(v))
	}
}

func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %s", typeName(v))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "mapping"
	case []any:
		return "list"
	case float64, manifest.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
