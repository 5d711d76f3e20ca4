package descriptor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var identSegmentRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// javaKeywords cannot appear as a package segment.
var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true,
}

// checkIdentifier validates a reverse-DNS identifier and returns a reason,
// or "" when it is valid.
func checkIdentifier(id string) string {
	if id == "" {
		return reasonRequired
	}
	segments := strings.Split(id, ".")
	if len(segments) < 2 {
		return "must have at least two dot-separated segments"
	}
	for _, seg := range segments {
		if seg == "" {
			return "empty segment"
		}
		if !identSegmentRe.MatchString(seg) {
			return fmt.Sprintf("segment %q is not a valid identifier (must match [A-Za-z][A-Za-z0-9_]*)", seg)
		}
		if javaKeywords[seg] {
			return fmt.Sprintf("segment %q is a reserved word", seg)
		}
	}
	return ""
}

// ToolchainVersion is a MAJOR.MINOR.PATCH.BUILD native toolchain version.
type ToolchainVersion struct {
	Major, Minor, Patch, Build uint64
}

// ParseToolchainVersion parses a four-part numeric version.
func ParseToolchainVersion(s string) (ToolchainVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return ToolchainVersion{}, fmt.Errorf("%q is not MAJOR.MINOR.PATCH.BUILD", s)
	}
	var nums [4]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return ToolchainVersion{}, fmt.Errorf("%q is not MAJOR.MINOR.PATCH.BUILD", s)
		}
		nums[i] = n
	}
	return ToolchainVersion{nums[0], nums[1], nums[2], nums[3]}, nil
}

// Semver drops the build component so the version can be checked against
// semver constraints.
func (t ToolchainVersion) Semver() *semver.Version {
	return semver.New(t.Major, t.Minor, t.Patch, "", "")
}

func (t ToolchainVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", t.Major, t.Minor, t.Patch, t.Build)
}

// javaVersions maps accepted spellings to the canonical language level.
var javaVersions = map[string]string{
	"1.8":         "1.8",
	"8":           "1.8",
	"VERSION_1_8": "1.8",
	"11":          "11",
	"VERSION_11":  "11",
	"17":          "17",
	"VERSION_17":  "17",
	"21":          "21",
	"VERSION_21":  "21",
}

const defaultJavaVersion = "11"

func normalizeJavaVersion(s string) (string, bool) {
	v, ok := javaVersions[strings.TrimSpace(s)]
	return v, ok
}

// checkCoordinate validates a group:artifact:version Maven coordinate whose
// version must be semver.
func checkCoordinate(coord string) string {
	parts := strings.Split(coord, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return fmt.Sprintf("%q is not a group:artifact:version coordinate", coord)
	}
	if _, err := semver.StrictNewVersion(parts[2]); err != nil {
		return fmt.Sprintf("version %q is not semver", parts[2])
	}
	return ""
}
