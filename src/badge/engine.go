package badge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sofmeright/appforge/src/descriptor"
)

// Engine generates SVG badges using a specific font.
type Engine struct {
	metrics  *FontMetrics
	override string
}

// New creates a badge engine with the given font metrics.
func New(metrics *FontMetrics) *Engine {
	return &Engine{metrics: metrics}
}

// WithColor returns an engine that paints every value side with color.
func (e *Engine) WithColor(color string) *Engine {
	return &Engine{metrics: e.metrics, override: color}
}

// Badge defines the content and appearance of a single badge.
type Badge struct {
	Name  string // file stem, e.g. "version"
	Label string // left side text
	Value string // right side text
	Color string // hex color for right side (e.g. "#4c1")
}

// Generate produces a shields.io-compatible SVG badge string.
func (e *Engine) Generate(b Badge) string {
	if e.override != "" {
		b.Color = e.override
	}
	return e.renderSVG(b)
}

// StatusColor maps a status keyword to a badge hex color.
func StatusColor(status string) string {
	switch status {
	case "passed", "success", "release":
		return "#4c1"
	case "warning", "debug":
		return "#dfb317"
	case "critical", "failed":
		return "#e05d44"
	default:
		return "#007ec6"
	}
}

// ForDescriptor returns the badge set published for a resolved descriptor.
func ForDescriptor(d descriptor.BuildDescriptor) []Badge {
	badges := []Badge{
		{Name: "version", Label: "version", Value: fmt.Sprintf("%s (%d)", d.VersionName, d.VersionCode), Color: StatusColor("")},
		{Name: "platform", Label: "platform", Value: fmt.Sprintf("%d-%d", d.MinPlatformVersion, d.TargetPlatformVersion), Color: StatusColor("")},
		{Name: "signing", Label: "signing", Value: string(d.SigningConfigRef), Color: StatusColor(string(d.SigningConfigRef))},
	}
	if d.ToolchainVersion != "" {
		badges = append(badges, Badge{Name: "toolchain", Label: "ndk", Value: d.ToolchainVersion, Color: StatusColor("")})
	}
	return badges
}

// Failed is the single badge written when a manifest does not resolve.
func Failed() Badge {
	return Badge{Name: "version", Label: "build", Value: "invalid", Color: StatusColor("failed")}
}

// WriteAll renders badges into dir as <name>.svg and returns the paths written.
func (e *Engine) WriteAll(dir string, badges []Badge) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating badge dir: %w", err)
	}
	paths := make([]string, 0, len(badges))
	for _, b := range badges {
		path := filepath.Join(dir, b.Name+".svg")
		if err := os.WriteFile(path, []byte(e.Generate(b)), 0o644); err != nil {
			return paths, fmt.Errorf("writing badge %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
