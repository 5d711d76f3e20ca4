// Package output renders resolve results for terminals, CI systems and
// downstream tools.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sofmeright/appforge/src/descriptor"
	"github.com/sofmeright/appforge/src/manifest"
)

// Colors for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// Report is the outcome of resolving one manifest.
type Report struct {
	Path       string
	Descriptor descriptor.BuildDescriptor
	Err        error
	Secrets    []manifest.SecretFinding
	Elapsed    time.Duration
}

// Status returns "success" or "failed".
func (r Report) Status() string {
	if r.Err != nil {
		return "failed"
	}
	return "success"
}

// Violations returns the validation errors carried by r.Err, if any.
func (r Report) Violations() descriptor.ValidationErrors {
	var errs descriptor.ValidationErrors
	if errors.As(r.Err, &errs) {
		return errs
	}
	var ve *descriptor.ValidationError
	if errors.As(r.Err, &ve) {
		return descriptor.ValidationErrors{ve}
	}
	return nil
}

// DescriptorSection renders one report as a framed section: the descriptor
// fields on success, every violation on failure.
func DescriptorSection(w io.Writer, r Report, color bool) {
	sec := NewSection(w, r.Path, r.Elapsed, color)
	defer sec.Close()

	for _, f := range r.Secrets {
		sec.Row("%-24s %s %s", fmt.Sprintf("line %d", f.Line), colorize("SECRET", colorRed, color), f.Message)
	}
	if len(r.Secrets) > 0 {
		sec.Separator()
	}

	if r.Err != nil {
		violations := r.Violations()
		if len(violations) == 0 {
			sec.Row("%s %s", StatusIcon("failed", color), r.Err)
			return
		}
		for _, v := range violations {
			sec.Row("%s %-24s %s", StatusIcon("failed", color), colorize(v.Field, colorCyan, color), v.Reason)
		}
		return
	}

	d := r.Descriptor
	rows := []KV{
		{"applicationId", d.ApplicationID},
		{"namespace", d.Namespace},
		{"platform", fmt.Sprintf("min %d  target %d  compile %d", d.MinPlatformVersion, d.TargetPlatformVersion, d.CompilePlatformVersion)},
		{"version", fmt.Sprintf("%s (%d)", d.VersionName, d.VersionCode)},
		{"signing", string(d.SigningConfigRef)},
		{"toolchain", orDash(d.ToolchainVersion)},
		{"java", fmt.Sprintf("%s  jvmTarget %s", d.JavaVersion, d.JVMTarget)},
		{"desugaring", desugarSummary(d)},
	}
	for _, kv := range rows {
		sec.Row("%-16s%s", kv.Key, kv.Value)
	}
}

func desugarSummary(d descriptor.BuildDescriptor) string {
	if !d.DesugaringEnabled {
		return "off"
	}
	if d.DesugarLibrary == "" {
		return "on"
	}
	return "on  " + d.DesugarLibrary
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Summary prints a one-line tally of resolved and failed manifests.
func Summary(w io.Writer, reports []Report, elapsed time.Duration, color bool) {
	fmt.Fprintf(w, "\n%s\n", SummaryLine(reports, elapsed, color))
}

// SummaryLine returns the tally used by Summary, optionally colored.
func SummaryLine(reports []Report, elapsed time.Duration, color bool) string {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}

	parts := []string{fmt.Sprintf("%d resolved", len(reports)-failed)}
	if failed > 0 {
		parts = append(parts, colorize(fmt.Sprintf("%d failed", failed), colorRed, color))
	}

	total := fmt.Sprintf("%d", len(reports))
	if color {
		total = colorBold + total + colorReset
	}
	return fmt.Sprintf("%s manifests in %s: %s", total, formatElapsed(elapsed), strings.Join(parts, ", "))
}

func colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}
