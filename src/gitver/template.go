package gitver

import (
	"fmt"
	"regexp"
	"strconv"
)

// templateRe matches {name} placeholders.
var templateRe = regexp.MustCompile(`\{([a-z]+)\}`)

// Expand resolves a versionName template against v.
//
//	{version}     "1.2.3", "1.2.3-rc.1" or "1.2.3-dev+abc1234"
//	{base}        "1.2.3"
//	{major} {minor} {patch}
//	{prerelease}  "rc.1" or ""
//	{sha}         "abc1234"
//	{branch}      "main"
//	{n}           first-parent commit count
//	{distance}    commits since the nearest tag
//	{date}        HEAD commit date, "2026-02-24"
//
// Text outside placeholders is copied as-is. Unknown placeholders are an error.
func (v *VersionInfo) Expand(tmpl string) (string, error) {
	var unknown string
	out := templateRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		val, ok := v.lookup(name)
		if !ok && unknown == "" {
			unknown = name
		}
		return val
	})
	if unknown != "" {
		return "", fmt.Errorf("version template %q: unknown variable {%s}", tmpl, unknown)
	}
	return out, nil
}

func (v *VersionInfo) lookup(name string) (string, bool) {
	switch name {
	case "version":
		return v.Version, true
	case "base":
		return v.Base, true
	case "major":
		return strconv.FormatUint(v.Major, 10), true
	case "minor":
		return strconv.FormatUint(v.Minor, 10), true
	case "patch":
		return strconv.FormatUint(v.Patch, 10), true
	case "prerelease":
		return v.Prerelease, true
	case "sha":
		return v.SHA, true
	case "branch":
		return v.Branch, true
	case "n":
		return strconv.Itoa(v.Commits), true
	case "distance":
		return strconv.Itoa(v.Distance), true
	case "date":
		return v.Date, true
	}
	return "", false
}
