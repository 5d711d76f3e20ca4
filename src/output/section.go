package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const minSectionWidth = 60

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visibleWidth counts runes that reach the terminal, ignoring color codes.
func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// Section is a framed block of rows. Rows are buffered so the frame can be
// sized to the widest one; nothing is written until Close.
type Section struct {
	w       io.Writer
	name    string
	elapsed time.Duration
	color   bool
	rows    []string
}

// separatorRow marks a divider in the row buffer.
const separatorRow = "\x00sep"

// NewSection starts a section. A non-zero elapsed is shown right-aligned in
// the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	return &Section{w: w, name: name, elapsed: elapsed, color: color}
}

// Row adds a content line.
func (s *Section) Row(format string, args ...any) {
	s.rows = append(s.rows, fmt.Sprintf(format, args...))
}

// Separator adds a divider between groups of rows.
func (s *Section) Separator() {
	s.rows = append(s.rows, separatorRow)
}

// Close writes the header, the buffered rows and the footer.
func (s *Section) Close() {
	width := minSectionWidth
	for _, r := range s.rows {
		if r != separatorRow {
			width = max(width, visibleWidth(r)+2)
		}
	}

	s.header(width)
	for _, r := range s.rows {
		if r == separatorRow {
			fmt.Fprintf(s.w, "    ├%s\n", strings.Repeat("─", width))
			continue
		}
		fmt.Fprintf(s.w, "    │ %s\n", r)
	}
	fmt.Fprintf(s.w, "    └%s\n", strings.Repeat("─", width))
}

// header renders "── name ────── elapsed ──" spanning width+1 columns.
func (s *Section) header(width int) {
	left := "── " + s.name + " "
	right := "──"
	if s.elapsed > 0 {
		right = " " + formatElapsed(s.elapsed) + " ──"
	}
	fill := max(1, width+1-utf8.RuneCountInString(left)-utf8.RuneCountInString(right))
	line := left + strings.Repeat("─", fill) + right

	if s.color {
		line = "\033[2;36m" + line + colorReset
	}
	fmt.Fprintf(s.w, "\n    %s\n", line)
}

var statusIcons = map[string]struct{ glyph, color string }{
	"success": {"✓", "\033[32m"},
	"failed":  {"✗", colorRed},
}

// StatusIcon returns the glyph for status: ✓ success, ✗ failed, ⊘ anything else.
func StatusIcon(status string, color bool) string {
	icon, ok := statusIcons[status]
	if !ok {
		icon = struct{ glyph, color string }{"⊘", "\033[33m"}
	}
	return colorize(icon.glyph, icon.color, color)
}

// KV is a key-value pair for the context block and descriptor rows.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints pairs two per line, each key padded to the widest key.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	keyWidth, valWidth := 0, 0
	for _, p := range kv {
		keyWidth = max(keyWidth, len(p.Key))
		valWidth = max(valWidth, len(p.Value))
	}

	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		line := fmt.Sprintf("%-*s  %-*s", keyWidth, kv[i].Key, valWidth, kv[i].Value)
		if i+1 < len(kv) {
			line += fmt.Sprintf("    %-*s  %s", keyWidth, kv[i+1].Key, kv[i+1].Value)
		}
		fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, " "))
	}
}

// formatElapsed renders d as <1ms, 340ms, 2.5s or 1m12.0s.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := d / time.Minute
	return fmt.Sprintf("%dm%.1fs", mins, (d - mins*time.Minute).Seconds())
}
