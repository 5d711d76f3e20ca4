package config

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/appforge/src/gitver"
	"github.com/sofmeright/appforge/src/manifest"
	"github.com/sofmeright/appforge/src/output"
)

var (
	identifierRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*$`)
	hexColorRe   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

func isIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// referenceableProfiles are the names a manifest's signingConfigRef may use.
var referenceableProfiles = map[string]bool{
	"debug":   true,
	"release": true,
}

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Version ───────────────────────────────────────────────────────────

	if cfg.Version != LatestVersion {
		errs = append(errs, fmt.Sprintf("version: must be %d, got %d", LatestVersion, cfg.Version))
	}

	// ── Manifests ─────────────────────────────────────────────────────────

	seen := make(map[string]bool)
	for i, m := range cfg.Manifests {
		mpath := fmt.Sprintf("manifests[%d]", i)
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Sprintf("%s: path is empty", mpath))
			continue
		}
		if seen[m] {
			errs = append(errs, fmt.Sprintf("%s: duplicate manifest %q", mpath, m))
		}
		seen[m] = true
		if _, ferr := manifest.FormatFor(m); ferr != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", mpath, ferr))
		}
	}

	// ── Resolve ───────────────────────────────────────────────────────────

	r := cfg.Resolve
	if r.HostNamespace != "" && !isIdentifier(r.HostNamespace) {
		errs = append(errs, fmt.Sprintf("resolve.host_namespace: %q is not a valid identifier", r.HostNamespace))
	}
	if r.ToolchainConstraint != "" {
		if _, cerr := semver.NewConstraint(r.ToolchainConstraint); cerr != nil {
			errs = append(errs, fmt.Sprintf("resolve.toolchain_constraint: %v", cerr))
		}
	}
	if r.MinPlatformFloor < 0 {
		errs = append(errs, fmt.Sprintf("resolve.min_platform_floor: must be >= 0, got %d", r.MinPlatformFloor))
	}
	if r.Jobs < 0 {
		errs = append(errs, fmt.Sprintf("resolve.jobs: must be >= 0, got %d", r.Jobs))
	}
	if r.VersionNameTemplate != "" {
		if _, terr := (&gitver.VersionInfo{}).Expand(r.VersionNameTemplate); terr != nil {
			errs = append(errs, fmt.Sprintf("resolve.version_name_template: %v", terr))
		}
		if !r.VersionFromGit && r.VersionNameTemplate != DefaultResolveConfig().VersionNameTemplate {
			warnings = append(warnings, "resolve.version_name_template: has no effect without version_from_git")
		}
	}

	// ── Signing ───────────────────────────────────────────────────────────

	names := make([]string, 0, len(cfg.Signing.Profiles))
	for name := range cfg.Signing.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := cfg.Signing.Profiles[name]
		ppath := fmt.Sprintf("signing.profiles.%s", name)

		if !isIdentifier(name) {
			errs = append(errs, fmt.Sprintf("%s: name is not a valid identifier", ppath))
			continue
		}
		if !referenceableProfiles[name] {
			warnings = append(warnings, fmt.Sprintf("%s: manifests can only reference debug or release", ppath))
		}
		if p.Credentials != "" && p.Keystore != "" {
			errs = append(errs, fmt.Sprintf("%s: credentials and keystore are mutually exclusive", ppath))
		}
		if p.Credentials != "" && !isIdentifier(p.Credentials) {
			errs = append(errs, fmt.Sprintf("%s: credentials prefix %q is not a valid identifier", ppath, p.Credentials))
		}
	}

	// ── Output ────────────────────────────────────────────────────────────

	if !slices.Contains(output.Formats, cfg.Output.Format) {
		errs = append(errs, fmt.Sprintf("output.format: unknown format %q (supported: %s)", cfg.Output.Format, strings.Join(output.Formats, ", ")))
	}

	// ── Badges ────────────────────────────────────────────────────────────

	if cfg.Badges.FontSize <= 0 {
		errs = append(errs, fmt.Sprintf("badges.font_size: must be > 0, got %g", cfg.Badges.FontSize))
	}
	if cfg.Badges.Color != "" && !hexColorRe.MatchString(cfg.Badges.Color) {
		errs = append(errs, fmt.Sprintf("badges.color: %q is not a hex color like #4c1 or #007ec6", cfg.Badges.Color))
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}
