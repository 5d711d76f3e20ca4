package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/appforge/src/descriptor"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// GitLab collapsible section helpers.

func SectionStart(w io.Writer, id, name string) {
	if !IsGitLabCI() {
		return
	}
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), id, name)
}

func SectionEnd(w io.Writer, id string) {
	if !IsGitLabCI() {
		return
	}
	fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
}

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// BuildJUnit converts resolve reports into JUnit suites. Each manifest is a
// suite and each descriptor field is a test case, so CI dashboards show
// exactly which field failed. Errors that are not validation errors (IO,
// parse, secrets) fail a synthetic "load" case.
func BuildJUnit(reports []Report, elapsed time.Duration) JUnitTestSuites {
	root := JUnitTestSuites{
		Name: "appforge-resolve",
		Time: fmt.Sprintf("%.3f", elapsed.Seconds()),
	}

	for _, r := range reports {
		suite := JUnitTestSuite{
			Name: "appforge/resolve/" + r.Path,
			Time: fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
		}
		classname := "appforge.resolve." + strings.ReplaceAll(filepath.ToSlash(r.Path), "/", ".")

		violations := r.Violations()
		if r.Err != nil && len(violations) == 0 {
			suite.Cases = append(suite.Cases, JUnitTestCase{
				Name:      "load",
				Classname: classname,
				Time:      "0.000",
				Failure: &JUnitFailure{
					Message: r.Err.Error(),
					Type:    "error",
					Body:    secretBody(r),
				},
			})
			suite.Tests++
			suite.Failures++
		} else {
			for _, field := range descriptor.Fields {
				tc := JUnitTestCase{Name: field, Classname: classname, Time: "0.000"}
				if v := violations.For(field); v != nil {
					tc.Failure = &JUnitFailure{Message: v.Reason, Type: "validation", Body: v.Error()}
					suite.Failures++
				}
				suite.Cases = append(suite.Cases, tc)
				suite.Tests++
			}
			// Unknown keys from strict mode are not descriptor fields.
			for _, v := range violations {
				if isDescriptorField(v.Field) {
					continue
				}
				suite.Cases = append(suite.Cases, JUnitTestCase{
					Name:      v.Field,
					Classname: classname,
					Time:      "0.000",
					Failure:   &JUnitFailure{Message: v.Reason, Type: "validation", Body: v.Error()},
				})
				suite.Tests++
				suite.Failures++
			}
		}

		root.Tests += suite.Tests
		root.Failures += suite.Failures
		root.Suites = append(root.Suites, suite)
	}
	return root
}

func isDescriptorField(name string) bool {
	for _, f := range descriptor.Fields {
		if f == name {
			return true
		}
	}
	return false
}

func secretBody(r Report) string {
	lines := make([]string, 0, len(r.Secrets))
	for _, f := range r.Secrets {
		lines = append(lines, fmt.Sprintf("  %d [%s] %s", f.Line, f.Rule, f.Message))
	}
	return strings.Join(lines, "\n")
}

// WriteJUnit writes resolve reports to dir/resolve.xml.
func WriteJUnit(dir string, reports []Report, elapsed time.Duration) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	path := filepath.Join(dir, "resolve.xml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(BuildJUnit(reports, elapsed)); err != nil {
		return fmt.Errorf("encoding junit xml: %w", err)
	}
	_, err = f.WriteString("\n")
	return err
}

// CIHeader prints a compact pipeline context block at the start of a CI run.
func CIHeader(w io.Writer) {
	if !IsCI() {
		return
	}
	parts := []string{}
	if tag := os.Getenv("CI_COMMIT_TAG"); tag != "" {
		parts = append(parts, fmt.Sprintf("tag=%s", tag))
	}
	if sha := os.Getenv("CI_COMMIT_SHORT_SHA"); sha != "" {
		parts = append(parts, fmt.Sprintf("sha=%s", sha))
	} else if sha := os.Getenv("CI_COMMIT_SHA"); sha != "" && len(sha) >= 8 {
		parts = append(parts, fmt.Sprintf("sha=%s", sha[:8]))
	}
	if pipe := os.Getenv("CI_PIPELINE_ID"); pipe != "" {
		parts = append(parts, fmt.Sprintf("pipeline=%s", pipe))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  ci: %s\n", strings.Join(parts, "  "))
	}
}
