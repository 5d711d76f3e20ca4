package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/appforge/src/buildenv"
	"github.com/sofmeright/appforge/src/config"
	"github.com/sofmeright/appforge/src/ctxlog"
	"github.com/sofmeright/appforge/src/descriptor"
)

const rideshareYAML = `applicationId: com.campus.rideshare
minPlatformVersion: 23
targetPlatformVersion: 34
versionCode: 3
versionName: "1.2.0"
signingConfigRef: release
desugaringEnabled: true
`

const targetBelowMinYAML = `applicationId: com.campus.rideshare
minPlatformVersion: 40
targetPlatformVersion: 34
versionCode: 3
versionName: "1.2.0"
signingConfigRef: release
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// quietContext keeps pipeline logging out of test output.
func quietContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func releaseConfig() *config.Config {
	c := config.Defaults()
	c.Signing.Profiles["release"] = config.SigningProfileConfig{Keystore: "/keys/release.jks", KeyAlias: "upload"}
	return c
}

func TestConfigProfiles(t *testing.T) {
	sc := config.SigningConfig{Profiles: map[string]config.SigningProfileConfig{
		"release": {Credentials: "RELEASE"},
		"qa":      {Keystore: "/keys/qa.jks", KeyAlias: "qa"},
	}}
	environ := []string{
		"RELEASE_KEYSTORE=/keys/release.jks",
		"RELEASE_STORE_PASSWORD=s",
		"RELEASE_KEY_PASSWORD=k",
	}

	profiles, err := configProfiles(sc, environ)
	require.NoError(t, err)
	assert.Equal(t, []string{"qa", "release"}, profiles.Names())

	release, ok := profiles.Lookup("release")
	require.True(t, ok)
	assert.Equal(t, "/keys/release.jks", release.Keystore)
	assert.True(t, release.HasCredentials)

	qa, _ := profiles.Lookup("qa")
	assert.Equal(t, "qa", qa.KeyAlias)
	assert.False(t, qa.HasCredentials)
}

func TestConfigProfilesMissingKeystore(t *testing.T) {
	sc := config.SigningConfig{Profiles: map[string]config.SigningProfileConfig{
		"release": {Credentials: "RELEASE"},
	}}
	_, err := configProfiles(sc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELEASE_KEYSTORE is not set")
}

func TestBuildEnvironment(t *testing.T) {
	c := releaseConfig()
	c.Resolve.HostNamespace = "host"

	env, err := buildEnvironment(quietContext(), c, []string{
		"APPFORGE_VERSION_CODE=7",
		"APPFORGE_HOST_NAMESPACE=ignored",
	}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "host", env.Namespace())
	assert.Equal(t, 7, env.VersionCode)

	_, ok := env.Profiles.Lookup("release")
	assert.True(t, ok)
	_, ok = env.Profiles.Lookup("debug")
	assert.True(t, ok, "built-in debug profile stays declared")
}

func TestBuildEnvironmentFromGit(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	writeFile(t, dir, "pubspec.yaml", "name: rideshare\n")
	_, err = wt.Add("pubspec.yaml")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.4.0", hash, nil)
	require.NoError(t, err)

	c := releaseConfig()
	c.Resolve.VersionFromGit = true
	c.Resolve.VersionNameTemplate = "{base}-rc"

	env, err := buildEnvironment(quietContext(), c, nil, dir)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0-rc", env.VersionName)
	assert.Equal(t, 1, env.VersionCode)

	// Explicit environment values win over git.
	env, err = buildEnvironment(quietContext(), c, []string{"APPFORGE_VERSION_NAME=2.0.0"}, dir)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", env.VersionName)
}

func TestNewResolverRejectsBadConstraint(t *testing.T) {
	c := config.Defaults()
	c.Resolve.ToolchainConstraint = "not a constraint"
	_, err := newResolver(c, buildenv.New(), runFlags{})
	require.Error(t, err)
}

func TestResolveAllKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "good.yml", rideshareYAML),
		writeFile(t, dir, "bad.yml", targetBelowMinYAML),
		writeFile(t, dir, "secret.yml", rideshareYAML+"storePassword: \"hunter2hunter2\"\n"),
		filepath.Join(dir, "missing.yml"),
		writeFile(t, dir, "app.ini", "x=1\n"),
	}

	env, err := buildEnvironment(quietContext(), releaseConfig(), nil, dir)
	require.NoError(t, err)
	r, err := newResolver(releaseConfig(), env, runFlags{})
	require.NoError(t, err)

	reports, err := resolveAll(quietContext(), r, paths, 2, true, false)
	require.NoError(t, err)
	require.Len(t, reports, len(paths))
	for i, rep := range reports {
		assert.Equal(t, paths[i], rep.Path)
	}

	require.NoError(t, reports[0].Err)
	assert.Equal(t, "com.campus.rideshare", reports[0].Descriptor.ApplicationID)
	assert.Equal(t, 34, reports[0].Descriptor.CompilePlatformVersion)

	var ve *descriptor.ValidationError
	require.ErrorAs(t, reports[1].Err, &ve)
	assert.Equal(t, descriptor.FieldTargetPlatformVersion, ve.Field)
	assert.Equal(t, "target < min", ve.Reason)

	require.Error(t, reports[2].Err)
	assert.Contains(t, reports[2].Err.Error(), "embedded secret")
	assert.NotEmpty(t, reports[2].Secrets)

	assert.Contains(t, reports[3].Err.Error(), "reading manifest")
	assert.Error(t, reports[4].Err)
	assert.Equal(t, 4, failedCount(reports))

	reports, err = resolveAll(quietContext(), r, paths[2:3], 0, true, true)
	require.NoError(t, err)
	assert.NoError(t, reports[0].Err)
	assert.NotEmpty(t, reports[0].Secrets)
}

func TestResolveAllStrictFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yml", rideshareYAML+"colour: blue\n")

	env, err := buildEnvironment(quietContext(), releaseConfig(), nil, dir)
	require.NoError(t, err)
	r, err := newResolver(releaseConfig(), env, runFlags{strict: true})
	require.NoError(t, err)

	reports, err := resolveAll(quietContext(), r, []string{path}, 1, false, false)
	require.NoError(t, err)
	var ve *descriptor.ValidationError
	require.ErrorAs(t, reports[0].Err, &ve)
	assert.Equal(t, "colour", ve.Field)
}

func TestResolveCommandEncodesJSON(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, ".appforge.yml", `version: 1
manifests: []
signing:
  profiles:
    release:
      keystore: /keys/release.jks
output:
  format: yaml
`)
	manifestPath := writeFile(t, dir, "app.yml", rideshareYAML)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"resolve", "--config", cfgPath, "--format", "json", manifestPath})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute(), stderr.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got), stdout.String())
	assert.Equal(t, "com.campus.rideshare", got["applicationId"])
	assert.Equal(t, "release", got["signingConfigRef"])
	assert.Equal(t, "11", got["jvmTarget"])
	assert.Contains(t, stderr.String(), "1 resolved")
}

func TestValidateCommandReportsViolations(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, ".appforge.yml", "version: 1\nsigning:\n  profiles:\n    release:\n      keystore: /keys/release.jks\n")
	manifestPath := writeFile(t, dir, "app.yml", targetBelowMinYAML)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"validate", "--config", cfgPath, manifestPath})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, "1 of 1 manifest(s) failed validation", err.Error())
	assert.Contains(t, stdout.String(), "targetPlatformVersion")
	assert.Contains(t, stdout.String(), "target < min")
}

func TestMigrateCommandPrintsUpgradedConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "old.yml", "signing_profiles: [release]\nformat: json\n")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"migrate", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "version: 1")
	assert.Contains(t, stdout.String(), "format: json")
}
