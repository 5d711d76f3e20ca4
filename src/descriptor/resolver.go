package descriptor

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/appforge/src/buildenv"
	"github.com/sofmeright/appforge/src/manifest"
)

const (
	reasonRequired       = "required"
	reasonTargetBelowMin = "target < min"
	reasonUnknownField   = "unknown field"
)

// inheritedByDefault lists fields that fall back to the environment when the
// manifest omits them, and the environment key each one reads.
var inheritedByDefault = map[string]string{
	FieldCompilePlatformVersion: "compilePlatformVersion",
	FieldVersionCode:            "versionCode",
	FieldVersionName:            "versionName",
	FieldToolchainVersion:       "toolchainVersion",
}

// Resolver turns manifests into descriptors against a fixed build
// environment. A Resolver is stateless and safe for concurrent use.
type Resolver struct {
	env       buildenv.Environment
	strict    bool
	failFast  bool
	floor     int
	toolchain *semver.Constraints
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrict rejects manifest keys the resolver does not understand.
func WithStrict() Option {
	return func(r *Resolver) { r.strict = true }
}

// WithFailFast stops at the first violation and returns it as a
// *ValidationError instead of collecting ValidationErrors.
func WithFailFast() Option {
	return func(r *Resolver) { r.failFast = true }
}

// WithMinPlatformFloor rejects minPlatformVersion values below floor.
func WithMinPlatformFloor(floor int) Option {
	return func(r *Resolver) { r.floor = floor }
}

// WithToolchainConstraint requires the toolchain's MAJOR.MINOR.PATCH to
// satisfy c. A nil constraint is ignored.
func WithToolchainConstraint(c *semver.Constraints) Option {
	return func(r *Resolver) { r.toolchain = c }
}

// NewResolver returns a resolver bound to env. A nil profile store is
// replaced by buildenv.DefaultProfiles.
func NewResolver(env buildenv.Environment, opts ...Option) *Resolver {
	if env.Profiles == nil {
		env.Profiles = buildenv.DefaultProfiles()
	}
	r := &Resolver{env: env}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve validates m and returns the descriptor. On failure the descriptor
// is zero and the error is ValidationErrors (or a single *ValidationError in
// fail-fast mode).
func (r *Resolver) Resolve(m manifest.Manifest) (BuildDescriptor, error) {
	s := &resolution{r: r, m: m}
	var d BuildDescriptor

	// ── Identity ──────────────────────────────────────────────────────────

	if id, ok := s.stringField(FieldApplicationID, true); ok {
		if reason := checkIdentifier(id); reason != "" {
			s.fail(FieldApplicationID, reason)
		} else {
			d.ApplicationID = id
		}
	}

	d.Namespace = d.ApplicationID
	if ns, ok := s.stringField(FieldNamespace, false); ok {
		if reason := checkIdentifier(ns); reason != "" {
			s.fail(FieldNamespace, reason)
		} else {
			d.Namespace = ns
		}
	}

	// ── Platform bounds ───────────────────────────────────────────────────

	// min is compared against target whenever it parsed, even if it was
	// itself rejected, so target < min is always reported on target.
	minValue, minParsed := s.intField(FieldMinPlatformVersion, true)
	if minParsed {
		switch {
		case minValue < 1:
			s.failf(FieldMinPlatformVersion, "must be >= 1, got %d", minValue)
		case r.floor > 0 && minValue < r.floor:
			s.failf(FieldMinPlatformVersion, "%d is below the platform floor %d", minValue, r.floor)
		default:
			d.MinPlatformVersion = minValue
		}
	}

	targetOK := false
	if v, ok := s.intField(FieldTargetPlatformVersion, true); ok {
		switch {
		case minParsed && v < minValue:
			s.fail(FieldTargetPlatformVersion, reasonTargetBelowMin)
		case v < 1:
			s.failf(FieldTargetPlatformVersion, "must be >= 1, got %d", v)
		default:
			d.TargetPlatformVersion = v
			targetOK = true
		}
	}

	d.CompilePlatformVersion = d.TargetPlatformVersion
	if v, ok := s.intField(FieldCompilePlatformVersion, false); ok {
		if targetOK && v < d.TargetPlatformVersion {
			s.fail(FieldCompilePlatformVersion, "compile < target")
		} else {
			d.CompilePlatformVersion = v
		}
	}

	// ── Version ───────────────────────────────────────────────────────────

	if v, ok := s.intField(FieldVersionCode, true); ok {
		if v < 1 {
			s.failf(FieldVersionCode, "must be >= 1, got %d", v)
		} else {
			d.VersionCode = v
		}
	}

	if v, ok := s.stringField(FieldVersionName, true); ok {
		d.VersionName = v
	}

	// ── Signing ───────────────────────────────────────────────────────────

	if v, ok := s.stringField(FieldSigningConfigRef, true); ok {
		ref := SigningRef(v)
		switch {
		case ref != SigningDebug && ref != SigningRelease:
			s.failf(FieldSigningConfigRef, "unknown signing profile %q (supported: debug, release)", v)
		default:
			if _, declared := r.env.Profiles.Lookup(v); !declared {
				s.failf(FieldSigningConfigRef, "signing profile %q is not declared in the build environment", v)
			} else {
				d.SigningConfigRef = ref
			}
		}
	}

	// ── Toolchain ─────────────────────────────────────────────────────────

	if v, ok := s.stringField(FieldToolchainVersion, false); ok {
		tv, err := ParseToolchainVersion(v)
		switch {
		case err != nil:
			s.fail(FieldToolchainVersion, err.Error())
		case r.toolchain != nil && !r.toolchain.Check(tv.Semver()):
			s.failf(FieldToolchainVersion, "%s does not satisfy %s", v, r.toolchain)
		default:
			d.ToolchainVersion = v
		}
	}

	// ── Compile options ───────────────────────────────────────────────────

	if v, ok := s.boolField(FieldDesugaringEnabled); ok {
		d.DesugaringEnabled = v
	}

	if v, ok := s.stringField(FieldDesugarLibrary, false); ok {
		if reason := checkCoordinate(v); reason != "" {
			s.fail(FieldDesugarLibrary, reason)
		} else if !d.DesugaringEnabled {
			s.fail(FieldDesugarLibrary, "requires desugaringEnabled")
		} else {
			d.DesugarLibrary = v
		}
	}

	d.JavaVersion = defaultJavaVersion
	if v, ok := s.stringField(FieldJavaVersion, false); ok {
		if jv, known := normalizeJavaVersion(v); known {
			d.JavaVersion = jv
		} else {
			s.failf(FieldJavaVersion, "unsupported Java version %q (supported: 1.8, 11, 17, 21)", v)
		}
	}

	d.JVMTarget = d.JavaVersion
	if v, ok := s.stringField(FieldJVMTarget, false); ok {
		if jv, known := normalizeJavaVersion(v); known {
			d.JVMTarget = jv
		} else {
			s.failf(FieldJVMTarget, "unsupported JVM target %q (supported: 1.8, 11, 17, 21)", v)
		}
	}

	// ── Unknown keys ──────────────────────────────────────────────────────

	if r.strict {
		for _, key := range m.Keys() {
			if !knownFields[key] {
				s.fail(key, reasonUnknownField)
			}
		}
	}

	if len(s.errs) > 0 {
		if r.failFast {
			return BuildDescriptor{}, s.errs[0]
		}
		return BuildDescriptor{}, s.errs
	}
	return d, nil
}

var knownFields = func() map[string]bool {
	known := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}
	return known
}()

// resolution is the scratch state of one Resolve call.
type resolution struct {
	r    *Resolver
	m    manifest.Manifest
	errs ValidationErrors
}

func (s *resolution) fail(field, reason string) {
	if s.r.failFast && len(s.errs) > 0 {
		return
	}
	s.errs = append(s.errs, &ValidationError{Field: field, Reason: reason})
}

func (s *resolution) failf(field, format string, args ...any) {
	s.fail(field, fmt.Sprintf(format, args...))
}

type lookupState int

const (
	absent lookupState = iota
	broken
	found
)

// lookup returns the raw value of field with inherit references followed.
// Fields in inheritedByDefault fall back to the environment when absent.
func (s *resolution) lookup(field string) (any, lookupState) {
	v, present := s.m[field]
	if !present || v == nil {
		if key, ok := inheritedByDefault[field]; ok {
			if iv, ok := s.r.env.Inherited(key); ok {
				return iv, found
			}
		}
		return nil, absent
	}

	ref, isRef := s.asRef(v)
	if !isRef {
		return v, found
	}

	ns := s.r.env.Namespace()
	if ref.Host != "" && ref.Host != ns {
		s.failf(field, "unknown inherit namespace %q in %s (expected %q)", ref.Host, ref, ns)
		return nil, broken
	}
	iv, ok := s.r.env.Inherited(ref.Key)
	if !ok {
		s.failf(field, "inherited value %s.%s is not set", ns, ref.Key)
		return nil, broken
	}
	return iv, found
}

// asRef recognises manifest.Ref values and "<namespace>.<key>" strings whose
// key the environment can supply. Other strings are literals.
func (s *resolution) asRef(v any) (manifest.Ref, bool) {
	switch t := v.(type) {
	case manifest.Ref:
		return t, true
	case string:
		host, key, ok := strings.Cut(t, ".")
		if ok && host == s.r.env.Namespace() && buildenv.IsInheritable(key) {
			return manifest.Ref{Host: host, Key: key}, true
		}
	}
	return manifest.Ref{}, false
}

func (s *resolution) intField(field string, required bool) (int, bool) {
	v, state := s.lookup(field)
	switch state {
	case broken:
		return 0, false
	case absent:
		if required {
			s.fail(field, reasonRequired)
		}
		return 0, false
	}
	n, err := asInt(v)
	if err != nil {
		s.fail(field, err.Error())
		return 0, false
	}
	return n, true
}

// stringField treats blank strings as absent. Other values are returned
// verbatim; surrounding whitespace is rejected rather than trimmed.
func (s *resolution) stringField(field string, required bool) (string, bool) {
	v, state := s.lookup(field)
	if state == broken {
		return "", false
	}
	if state == found {
		str, err := asString(v)
		if err != nil {
			s.fail(field, err.Error())
			return "", false
		}
		if trimmed := strings.TrimSpace(str); trimmed != "" {
			if trimmed != str {
				s.failf(field, "%q has leading or trailing whitespace", str)
				return "", false
			}
			return str, true
		}
	}
	if required {
		s.fail(field, reasonRequired)
	}
	return "", false
}

func (s *resolution) boolField(field string) (bool, bool) {
	v, state := s.lookup(field)
	if state != found {
		return false, false
	}
	b, err := asBool(v)
	if err != nil {
		s.fail(field, err.Error())
		return false, false
	}
	return b, true
}
