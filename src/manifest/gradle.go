package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// gradleField maps a property inside a named block to a manifest key.
type gradleField struct {
	block string
	key   string
}

var gradleFields = map[gradleField]string{
	{"android", "namespace"}:                             "namespace",
	{"android", "compileSdk"}:                            "compilePlatformVersion",
	{"android", "compileSdkVersion"}:                     "compilePlatformVersion",
	{"android", "ndkVersion"}:                            "toolchainVersion",
	{"defaultConfig", "applicationId"}:                   "applicationId",
	{"defaultConfig", "minSdk"}:                          "minPlatformVersion",
	{"defaultConfig", "minSdkVersion"}:                   "minPlatformVersion",
	{"defaultConfig", "targetSdk"}:                       "targetPlatformVersion",
	{"defaultConfig", "targetSdkVersion"}:                "targetPlatformVersion",
	{"defaultConfig", "versionCode"}:                     "versionCode",
	{"defaultConfig", "versionName"}:                     "versionName",
	{"release", "signingConfig"}:                         "signingConfigRef",
	{"compileOptions", "isCoreLibraryDesugaringEnabled"}: "desugaringEnabled",
	{"compileOptions", "coreLibraryDesugaringEnabled"}:   "desugaringEnabled",
	{"compileOptions", "sourceCompatibility"}:            "javaVersion",
	{"kotlinOptions", "jvmTarget"}:                       "jvmTarget",
}

var (
	// key = value (Kotlin DSL) or key value (Groovy)
	gradleAssignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:=\s*|\s+)(.+)$`)
	// android {   |   getByName("release") {   |   release {
	gradleBlockRe  = regexp.MustCompile(`^(?:getByName\(\s*"([^"]+)"\s*\)|([A-Za-z_][A-Za-z0-9_.]*))\s*(?:\([^)]*\))?\s*\{$`)
	gradleDesugar  = regexp.MustCompile(`^coreLibraryDesugaring\s*\(?\s*["']([^"']+)["']\s*\)?$`)
	gradleByName   = regexp.MustCompile(`^signingConfigs\.(?:getByName\(\s*"([^"]+)"\s*\)|([A-Za-z_][A-Za-z0-9_]*))$`)
	gradleRefRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)$`)
	// kotlinOptions { jvmTarget = "17" }
	gradleInlineRe = regexp.MustCompile(`^(?:getByName\(\s*"([^"]+)"\s*\)|([A-Za-z_][A-Za-z0-9_.]*))\s*\{\s*([^{}]*?)\s*\}$`)
	ndkRevisionRe  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// decodeGradle extracts manifest keys from an Android module build script.
// It understands the flat property assignments those scripts use, not the
// Kotlin or Groovy languages in general. Braces that do not open a named
// block (if/else bodies, lambdas) push an anonymous frame so nesting stays
// balanced.
func decodeGradle(data []byte) (Manifest, error) {
	m := Manifest{}
	var stack []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(stripLineComment(sc.Text()))

		// Leading closers: "}", "} else {", "})".
		for strings.HasPrefix(line, "}") {
			if len(stack) == 0 {
				return nil, fmt.Errorf("manifest: line %d: unbalanced '}'", lineNo)
			}
			stack = stack[:len(stack)-1]
			line = strings.TrimSpace(line[1:])
		}
		if line == "" {
			continue
		}

		opens, closes := countBraces(line)
		switch {
		case opens == closes && opens > 0:
			// One-line block: kotlinOptions { jvmTarget = "17" }
			if bm := gradleInlineRe.FindStringSubmatch(line); bm != nil && !gradleKeywords[bm[2]] {
				inner := append(stack[:len(stack):len(stack)], blockName(bm[1], bm[2]))
				for _, stmt := range strings.Split(bm[3], ";") {
					applyGradleStatement(m, inner, strings.TrimSpace(stmt))
				}
				continue
			}
			applyGradleStatement(m, stack, line)

		case opens > closes:
			name := ""
			if bm := gradleBlockRe.FindStringSubmatch(line); bm != nil && opens == 1 && !gradleKeywords[bm[2]] {
				name = blockName(bm[1], bm[2])
			}
			stack = append(stack, name)
			for i := 1; i < opens-closes; i++ {
				stack = append(stack, "")
			}

		case closes > opens:
			for i := 0; i < closes-opens; i++ {
				if len(stack) == 0 {
					return nil, fmt.Errorf("manifest: line %d: unbalanced '}'", lineNo)
				}
				stack = stack[:len(stack)-1]
			}

		default:
			applyGradleStatement(m, stack, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if len(stack) != 0 {
		name := stack[len(stack)-1]
		if name == "" {
			name = "{"
		}
		return nil, fmt.Errorf("manifest: unclosed block %q", name)
	}
	return m, nil
}

// gradleKeywords open control-flow bodies, not configuration blocks.
var gradleKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "when": true,
	"try": true, "catch": true, "finally": true,
}

func blockName(byName, ident string) string {
	if byName != "" {
		return byName
	}
	return ident
}

// applyGradleStatement records stmt if it assigns a known property of the
// innermost named block on stack.
func applyGradleStatement(m Manifest, stack []string, stmt string) {
	block := innermostBlock(stack)
	if block == "" || stmt == "" {
		return
	}

	if block == "dependencies" {
		if dm := gradleDesugar.FindStringSubmatch(stmt); dm != nil {
			m["desugarLibrary"] = dm[1]
		}
		return
	}

	am := gradleAssignRe.FindStringSubmatch(stmt)
	if am == nil {
		return
	}
	key, ok := gradleFields[gradleField{block, am[1]}]
	if !ok {
		return
	}
	// signingConfig only counts for the release build type
	if key == "signingConfigRef" && !inBlock(stack, "buildTypes") {
		return
	}
	v := gradleValue(strings.TrimSpace(am[2]))
	if key == "toolchainVersion" {
		v = ndkRevision(v)
	}
	m[key] = v
}

// ndkRevision widens a MAJOR.MINOR.PATCH NDK revision, as Gradle writes it,
// to MAJOR.MINOR.PATCH.BUILD with build 0.
func ndkRevision(v any) any {
	s, ok := v.(string)
	if !ok || !ndkRevisionRe.MatchString(s) {
		return v
	}
	return s + ".0"
}

// innermostBlock returns the nearest named frame; anonymous frames (if
// bodies, lambdas) are transparent.
func innermostBlock(stack []string) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] != "" {
			return stack[i]
		}
	}
	return ""
}

// countBraces counts { and } outside string literals.
func countBraces(line string) (opens, closes int) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			opens++
		case c == '}':
			closes++
		}
	}
	return opens, closes
}

func gradleValue(raw string) any {
	raw = strings.TrimSuffix(raw, ";")

	if s, err := strconv.Unquote(raw); err == nil && strings.HasPrefix(raw, `"`) {
		return s
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if sm := gradleByName.FindStringSubmatch(raw); sm != nil {
		if sm[1] != "" {
			return sm[1]
		}
		return sm[2]
	}
	if strings.HasPrefix(raw, "JavaVersion.") {
		return strings.TrimPrefix(raw, "JavaVersion.")
	}
	if rm := gradleRefRe.FindStringSubmatch(raw); rm != nil {
		return Ref{Host: rm[1], Key: rm[2]}
	}
	return raw
}

func inBlock(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}

// stripLineComment removes a trailing // comment that is not inside a string.
func stripLineComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}
