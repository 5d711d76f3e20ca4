package manifest

import (
	"bufio"
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// SecretFinding is a credential found inline in a manifest.
type SecretFinding struct {
	Line    int
	Rule    string
	Message string
}

// inlinePasswordRe catches keystore passwords written straight into a build
// script; gitleaks' generic rules do not cover these field names.
var inlinePasswordRe = regexp.MustCompile(`(?i)\b(storePassword|keyPassword)\b\s*[:=]?\s*["']([^"']+)["']`)

// SecretScanner checks manifest bytes for embedded signing secrets.
// Not safe for concurrent use; give each goroutine its own scanner.
type SecretScanner struct {
	detector *detect.Detector
}

// NewSecretScanner returns a scanner using the gitleaks default rule set.
func NewSecretScanner() *SecretScanner {
	return &SecretScanner{}
}

// Scan returns findings ordered by line.
func (s *SecretScanner) Scan(data []byte) ([]SecretFinding, error) {
	if s.detector == nil {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return nil, err
		}
		s.detector = d
	}

	var findings []SecretFinding
	for _, h := range s.detector.DetectBytes(data) {
		findings = append(findings, SecretFinding{
			Line:    h.StartLine + 1, // gitleaks is 0-indexed
			Rule:    h.RuleID,
			Message: h.Description,
		})
	}
	findings = append(findings, scanInlinePasswords(data)...)

	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return findings, nil
}

func scanInlinePasswords(data []byte) []SecretFinding {
	var out []SecretFinding
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		m := inlinePasswordRe.FindStringSubmatch(stripLineComment(sc.Text()))
		if m == nil {
			continue
		}
		// ${VAR} placeholders are resolved by the host tool, not secrets
		if strings.HasPrefix(m[2], "${") {
			continue
		}
		out = append(out, SecretFinding{
			Line:    line,
			Rule:    "inline-signing-password",
			Message: m[1] + " is set inline; read it from the signing profile store instead",
		})
	}
	return out
}
