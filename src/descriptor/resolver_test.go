package descriptor

import (
	"errors"
	"math"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/appforge/src/buildenv"
	"github.com/sofmeright/appforge/src/manifest"
)

func rideshareManifest() manifest.Manifest {
	return manifest.Manifest{
		"applicationId":         "com.campus.rideshare",
		"minPlatformVersion":    23,
		"targetPlatformVersion": 34,
		"versionCode":           1,
		"versionName":           "1.0",
		"signingConfigRef":      "debug",
		"desugaringEnabled":     true,
	}
}

func requireViolations(t *testing.T, err error) ValidationErrors {
	t.Helper()

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs), "expected ValidationErrors, got %T: %v", err, err)
	return errs
}

func TestResolveRideshareExample(t *testing.T) {
	d, err := NewResolver(buildenv.New()).Resolve(rideshareManifest())
	require.NoError(t, err)

	assert.Equal(t, BuildDescriptor{
		ApplicationID:          "com.campus.rideshare",
		Namespace:              "com.campus.rideshare",
		MinPlatformVersion:     23,
		TargetPlatformVersion:  34,
		CompilePlatformVersion: 34,
		VersionCode:            1,
		VersionName:            "1.0",
		SigningConfigRef:       SigningDebug,
		DesugaringEnabled:      true,
		JavaVersion:            "11",
		JVMTarget:              "11",
	}, d)
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver(buildenv.New())
	m := rideshareManifest()
	m["toolchainVersion"] = "27.0.12077973.0"

	first, err := r.Resolve(m)
	require.NoError(t, err)
	second, err := r.Resolve(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, rideshareManifest()["applicationId"], m["applicationId"], "manifest is not mutated")
}

func TestResolveTargetBelowMin(t *testing.T) {
	m := rideshareManifest()
	m["minPlatformVersion"] = 40

	_, err := NewResolver(buildenv.New()).Resolve(m)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, &ValidationError{Field: "targetPlatformVersion", Reason: "target < min"}, ve)
}

func TestResolveTargetBelowMinAlwaysFails(t *testing.T) {
	r := NewResolver(buildenv.New())
	for min := 2; min <= 40; min += 7 {
		for target := 1; target < min; target += 3 {
			m := rideshareManifest()
			m["minPlatformVersion"] = min
			m["targetPlatformVersion"] = target

			_, err := r.Resolve(m)
			errs := requireViolations(t, err)
			require.NotNil(t, errs.For(FieldTargetPlatformVersion), "min=%d target=%d", min, target)
			assert.Equal(t, reasonTargetBelowMin, errs.For(FieldTargetPlatformVersion).Reason)
		}
	}
}

func TestResolveEmptyApplicationID(t *testing.T) {
	for _, id := range []any{"", "   ", nil} {
		m := rideshareManifest()
		m["applicationId"] = id

		_, err := NewResolver(buildenv.New()).Resolve(m)
		errs := requireViolations(t, err)
		assert.Equal(t, []string{FieldApplicationID}, errs.Fields())
		assert.Equal(t, "required", errs[0].Reason)
	}

	m := rideshareManifest()
	delete(m, "applicationId")
	_, err := NewResolver(buildenv.New()).Resolve(m)
	assert.Equal(t, []string{FieldApplicationID}, requireViolations(t, err).Fields())
}

func TestResolveApplicationIDShape(t *testing.T) {
	cases := map[string]string{
		"rideshare":           "must have at least two dot-separated segments",
		"com..rideshare":      "empty segment",
		"com.campus.1ride":    `segment "1ride" is not a valid identifier (must match [A-Za-z][A-Za-z0-9_]*)`,
		"com.campus.ride-app": `segment "ride-app" is not a valid identifier (must match [A-Za-z][A-Za-z0-9_]*)`,
		"com.new.rideshare":   `segment "new" is a reserved word`,
	}
	for id, reason := range cases {
		m := rideshareManifest()
		m["applicationId"] = id
		_, err := NewResolver(buildenv.New()).Resolve(m)
		errs := requireViolations(t, err)
		require.Len(t, errs, 1, id)
		assert.Equal(t, reason, errs[0].Reason, id)
	}
}

func TestResolveCollectsAllViolations(t *testing.T) {
	_, err := NewResolver(buildenv.New()).Resolve(manifest.Manifest{
		"minPlatformVersion":    0,
		"targetPlatformVersion": "abc",
		"signingConfigRef":      "staging",
		"toolchainVersion":      "27.0",
	})
	errs := requireViolations(t, err)
	assert.Equal(t, []string{
		FieldApplicationID,
		FieldMinPlatformVersion,
		FieldTargetPlatformVersion,
		FieldVersionCode,
		FieldVersionName,
		FieldSigningConfigRef,
		FieldToolchainVersion,
	}, errs.Fields())
	assert.Contains(t, err.Error(), "applicationId: required; ")
}

func TestResolveFailFast(t *testing.T) {
	_, err := NewResolver(buildenv.New(), WithFailFast()).Resolve(manifest.Manifest{
		"minPlatformVersion": 0,
	})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldApplicationID, ve.Field)

	var errs ValidationErrors
	assert.False(t, errors.As(err, &errs))
}

func TestResolveStrictUnknownFields(t *testing.T) {
	m := rideshareManifest()
	m["minSdk"] = 23
	m["flavor"] = "prod"

	_, err := NewResolver(buildenv.New()).Resolve(m)
	require.NoError(t, err, "unknown keys are ignored by default")

	_, err = NewResolver(buildenv.New(), WithStrict()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, []string{"flavor", "minSdk"}, errs.Fields())
	assert.Equal(t, "unknown field", errs[0].Reason)
}

func TestResolveInheritedReferences(t *testing.T) {
	env := buildenv.New()
	env.VersionCode = 12
	env.VersionName = "2.3.0"
	env.CompilePlatformVersion = 35

	m := rideshareManifest()
	m["versionCode"] = manifest.Ref{Host: "flutter", Key: "versionCode"}
	m["versionName"] = "flutter.versionName"
	m["compilePlatformVersion"] = manifest.Ref{Key: "compileSdkVersion"}

	d, err := NewResolver(env).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, 12, d.VersionCode)
	assert.Equal(t, "2.3.0", d.VersionName)
	assert.Equal(t, 35, d.CompilePlatformVersion)
}

func TestResolveMissingInheritedValue(t *testing.T) {
	m := rideshareManifest()
	m["versionCode"] = manifest.Ref{Host: "flutter", Key: "versionCode"}

	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, &ValidationError{Field: FieldVersionCode, Reason: "inherited value flutter.versionCode is not set"}, errs[0])
}

func TestResolveUnknownNamespace(t *testing.T) {
	m := rideshareManifest()
	m["versionCode"] = manifest.Ref{Host: "rootProject", Key: "versionCode"}

	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Contains(t, errs[0].Reason, `unknown inherit namespace "rootProject"`)
}

func TestResolveLiteralThatLooksLikeReference(t *testing.T) {
	m := rideshareManifest()
	m["applicationId"] = "flutter.demo"

	d, err := NewResolver(buildenv.New()).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, "flutter.demo", d.ApplicationID)
}

func TestResolveEnvironmentFallback(t *testing.T) {
	env := buildenv.New()
	env.VersionCode = 99
	env.ToolchainVersion = "27.0.12077973.1"

	m := rideshareManifest()
	delete(m, "versionCode")

	d, err := NewResolver(env).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, 99, d.VersionCode)
	assert.Equal(t, "27.0.12077973.1", d.ToolchainVersion)
}

func TestResolveManifestWinsOverEnvironment(t *testing.T) {
	env := buildenv.New()
	env.VersionCode = 99

	d, err := NewResolver(env).Resolve(rideshareManifest())
	require.NoError(t, err)
	assert.Equal(t, 1, d.VersionCode)
}

func TestResolveSigningProfiles(t *testing.T) {
	m := rideshareManifest()
	m["signingConfigRef"] = "release"

	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, `signing profile "release" is not declared in the build environment`, errs[0].Reason)

	env := buildenv.New()
	env.Profiles = buildenv.ChainProfiles{
		buildenv.DefaultProfiles(),
		buildenv.StaticProfiles{"release": {Name: "release"}},
	}
	d, err := NewResolver(env).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, SigningRelease, d.SigningConfigRef)
}

func TestResolveNilProfileStoreDeclaresDebug(t *testing.T) {
	_, err := NewResolver(buildenv.Environment{}).Resolve(rideshareManifest())
	assert.NoError(t, err)
}

func TestResolveToolchain(t *testing.T) {
	m := rideshareManifest()
	m["toolchainVersion"] = "27.0.12077973"
	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, FieldToolchainVersion, errs[0].Field)

	c, err := semver.NewConstraint(">= 26")
	require.NoError(t, err)

	m["toolchainVersion"] = "25.2.9519653.0"
	_, err = NewResolver(buildenv.New(), WithToolchainConstraint(c)).Resolve(m)
	errs = requireViolations(t, err)
	assert.Contains(t, errs[0].Reason, "25.2.9519653.0 does not satisfy")

	m["toolchainVersion"] = "27.0.12077973.0"
	d, err := NewResolver(buildenv.New(), WithToolchainConstraint(c)).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, "27.0.12077973.0", d.ToolchainVersion)
}

func TestResolveMinPlatformFloor(t *testing.T) {
	m := rideshareManifest()
	m["minPlatformVersion"] = 19
	_, err := NewResolver(buildenv.New(), WithMinPlatformFloor(21)).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, []string{FieldMinPlatformVersion}, errs.Fields())

	// A min below the floor still bounds target.
	m["targetPlatformVersion"] = 10
	_, err = NewResolver(buildenv.New(), WithMinPlatformFloor(21)).Resolve(m)
	errs = requireViolations(t, err)
	assert.Equal(t, []string{FieldMinPlatformVersion, FieldTargetPlatformVersion}, errs.Fields())
	assert.Equal(t, reasonTargetBelowMin, errs.For(FieldTargetPlatformVersion).Reason)
}

func TestResolveTargetBelowNonPositiveMin(t *testing.T) {
	m := rideshareManifest()
	m["minPlatformVersion"] = 0
	m["targetPlatformVersion"] = -1
	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, reasonTargetBelowMin, errs.For(FieldTargetPlatformVersion).Reason)
}

func TestResolveKeepsStringsVerbatim(t *testing.T) {
	m := rideshareManifest()
	m["toolchainVersion"] = "27.0.012077973.0"
	m["versionName"] = "1.0-beta+build.7"
	d, err := NewResolver(buildenv.New()).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, "27.0.012077973.0", d.ToolchainVersion)
	assert.Equal(t, "1.0-beta+build.7", d.VersionName)
}

func TestResolveRejectsSurroundingWhitespace(t *testing.T) {
	m := rideshareManifest()
	m["versionName"] = " 1.0 "
	m["signingConfigRef"] = "debug\n"
	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, []string{FieldVersionName, FieldSigningConfigRef}, errs.Fields())
	assert.Equal(t, `" 1.0 " has leading or trailing whitespace`, errs[0].Reason)
}

func TestResolveCompileBelowTarget(t *testing.T) {
	m := rideshareManifest()
	m["compilePlatformVersion"] = 33
	_, err := NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, "compile < target", errs.For(FieldCompilePlatformVersion).Reason)
}

func TestResolveVersionCode(t *testing.T) {
	for _, v := range []any{0, -3, 1.5, "x", true} {
		m := rideshareManifest()
		m["versionCode"] = v
		_, err := NewResolver(buildenv.New()).Resolve(m)
		errs := requireViolations(t, err)
		assert.Equal(t, []string{FieldVersionCode}, errs.Fields(), "%v", v)
	}
}

func TestResolveCoercesUntypedValues(t *testing.T) {
	m := manifest.Manifest{
		"applicationId":         "com.campus.rideshare",
		"minPlatformVersion":    int64(23),
		"targetPlatformVersion": float64(34),
		"versionCode":           "7",
		"versionName":           manifest.Number("1.0"),
		"signingConfigRef":      "debug",
		"desugaringEnabled":     "true",
	}
	d, err := NewResolver(buildenv.New()).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, 23, d.MinPlatformVersion)
	assert.Equal(t, 34, d.TargetPlatformVersion)
	assert.Equal(t, 7, d.VersionCode)
	assert.Equal(t, "1.0", d.VersionName)
	assert.True(t, d.DesugaringEnabled)
}

func TestResolveIntOutOfRange(t *testing.T) {
	var over int64 = math.MaxInt32 + 1
	for _, v := range []any{int(over), int64(math.MinInt32) - 1, uint64(1) << 40, 1e19} {
		m := rideshareManifest()
		m["versionCode"] = v
		_, err := NewResolver(buildenv.New()).Resolve(m)
		errs := requireViolations(t, err)
		assert.Contains(t, errs.For(FieldVersionCode).Reason, "out of range", "%v", v)
	}
}

func TestResolveCompileOptions(t *testing.T) {
	m := rideshareManifest()
	m["javaVersion"] = "VERSION_17"
	m["desugarLibrary"] = "com.android.tools:desugar_jdk_libs:2.0.4"
	m["namespace"] = "com.campus.rideshare.app"

	d, err := NewResolver(buildenv.New()).Resolve(m)
	require.NoError(t, err)
	assert.Equal(t, "17", d.JavaVersion)
	assert.Equal(t, "17", d.JVMTarget)
	assert.Equal(t, "com.android.tools:desugar_jdk_libs:2.0.4", d.DesugarLibrary)
	assert.Equal(t, "com.campus.rideshare.app", d.Namespace)

	m["desugaringEnabled"] = false
	m["jvmTarget"] = "9"
	_, err = NewResolver(buildenv.New()).Resolve(m)
	errs := requireViolations(t, err)
	assert.Equal(t, []string{FieldDesugarLibrary, FieldJVMTarget}, errs.Fields())
	assert.Equal(t, "requires desugaringEnabled", errs[0].Reason)
}

func TestParseToolchainVersion(t *testing.T) {
	tv, err := ParseToolchainVersion("27.0.12077973.4")
	require.NoError(t, err)
	assert.Equal(t, ToolchainVersion{27, 0, 12077973, 4}, tv)
	assert.Equal(t, "27.0.12077973", tv.Semver().String())
	assert.Equal(t, "27.0.12077973.4", tv.String())

	for _, bad := range []string{"", "27", "27.0.1", "27.0.1.x", "v27.0.1.0", "27.0.1.0.0"} {
		_, err := ParseToolchainVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestCheckCoordinate(t *testing.T) {
	assert.Empty(t, checkCoordinate("com.android.tools:desugar_jdk_libs:2.0.4"))
	assert.NotEmpty(t, checkCoordinate("desugar_jdk_libs:2.0.4"))
	assert.NotEmpty(t, checkCoordinate("com.android.tools:desugar_jdk_libs:2.0"))
}

func TestResolveFlutterBuildScript(t *testing.T) {
	m, err := manifest.Load("testdata/build.gradle.kts")
	require.NoError(t, err)

	env := buildenv.New()
	env.VersionCode = 7
	env.VersionName = "1.3.0"
	env.CompilePlatformVersion = 35

	d, err := NewResolver(env).Resolve(m)
	require.NoError(t, err)

	assert.Equal(t, BuildDescriptor{
		ApplicationID:          "com.campus.rideshare",
		Namespace:              "com.campus.rideshare",
		MinPlatformVersion:     23,
		TargetPlatformVersion:  34,
		CompilePlatformVersion: 35,
		VersionCode:            7,
		VersionName:            "1.3.0",
		SigningConfigRef:       SigningDebug,
		ToolchainVersion:       "27.0.12077973.0",
		DesugaringEnabled:      true,
		DesugarLibrary:         "com.android.tools:desugar_jdk_libs:2.0.4",
		JavaVersion:            "11",
		JVMTarget:              "11",
	}, d)
}
