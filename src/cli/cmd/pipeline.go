package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sofmeright/appforge/src/buildenv"
	"github.com/sofmeright/appforge/src/config"
	"github.com/sofmeright/appforge/src/ctxlog"
	"github.com/sofmeright/appforge/src/descriptor"
	"github.com/sofmeright/appforge/src/gitver"
	"github.com/sofmeright/appforge/src/manifest"
	"github.com/sofmeright/appforge/src/output"
)

// runFlags are the per-invocation overrides shared by resolve, validate and badge.
type runFlags struct {
	strict       bool
	failFast     bool
	allowSecrets bool
	jobs         int
}

// buildEnvironment assembles the resolver's inherited values and signing
// profiles from environ, the config and (optionally) git history in rootDir.
func buildEnvironment(ctx context.Context, c *config.Config, environ []string, rootDir string) (buildenv.Environment, error) {
	log := ctxlog.FromContext(ctx)

	env, err := buildenv.FromEnviron(environ)
	if err != nil {
		return buildenv.Environment{}, err
	}
	if c.Resolve.HostNamespace != "" {
		env.HostNamespace = c.Resolve.HostNamespace
	}

	declared, err := configProfiles(c.Signing, environ)
	if err != nil {
		return buildenv.Environment{}, err
	}
	env.Profiles = buildenv.ChainProfiles{declared, env.Profiles}
	log.Debug("signing profiles", "config", declared.Names())

	if c.Resolve.VersionFromGit {
		info, err := gitver.Detect(rootDir)
		if err != nil {
			return buildenv.Environment{}, fmt.Errorf("version from git: %w", err)
		}
		if env.VersionName == "" {
			name, err := info.Expand(c.Resolve.VersionNameTemplate)
			if err != nil {
				return buildenv.Environment{}, err
			}
			env.VersionName = name
		}
		info.Apply(&env)
		log.Debug("git version", "version", info.Version, "commits", info.Commits, "release", info.IsRelease)
	}

	return env, nil
}

// configProfiles turns the config's signing section into a profile store.
func configProfiles(sc config.SigningConfig, environ []string) (buildenv.StaticProfiles, error) {
	names := make([]string, 0, len(sc.Profiles))
	for name := range sc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := buildenv.StaticProfiles{}
	for _, name := range names {
		pc := sc.Profiles[name]
		if pc.Credentials != "" {
			p, err := buildenv.CredentialProfile(name, pc.Credentials, environ)
			if err != nil {
				return nil, err
			}
			if p.Keystore == "" {
				return nil, fmt.Errorf("signing profile %s: %s_KEYSTORE is not set", name, pc.Credentials)
			}
			profiles[name] = p
			continue
		}
		profiles[name] = buildenv.SigningProfile{Name: name, Keystore: pc.Keystore, KeyAlias: pc.KeyAlias}
	}
	return profiles, nil
}

// newResolver applies config and flag options. Flags only ever tighten.
func newResolver(c *config.Config, env buildenv.Environment, f runFlags) (*descriptor.Resolver, error) {
	var opts []descriptor.Option
	if c.Resolve.Strict || f.strict {
		opts = append(opts, descriptor.WithStrict())
	}
	if c.Resolve.FailFast || f.failFast {
		opts = append(opts, descriptor.WithFailFast())
	}
	if c.Resolve.MinPlatformFloor > 0 {
		opts = append(opts, descriptor.WithMinPlatformFloor(c.Resolve.MinPlatformFloor))
	}
	if c.Resolve.ToolchainConstraint != "" {
		constraint, err := semver.NewConstraint(c.Resolve.ToolchainConstraint)
		if err != nil {
			return nil, fmt.Errorf("toolchain constraint %q: %w", c.Resolve.ToolchainConstraint, err)
		}
		opts = append(opts, descriptor.WithToolchainConstraint(constraint))
	}
	return descriptor.NewResolver(env, opts...), nil
}

// resolveAll resolves every path concurrently, bounded by jobs, and returns
// reports in argument order. Per-manifest failures live in the reports; the
// error is only non-nil when ctx is cancelled.
func resolveAll(ctx context.Context, r *descriptor.Resolver, paths []string, jobs int, scan bool, allowSecrets bool) ([]output.Report, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	reports := make([]output.Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = resolveOne(gctx, r, path, scan, allowSecrets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func resolveOne(ctx context.Context, r *descriptor.Resolver, path string, scan bool, allowSecrets bool) output.Report {
	log := ctxlog.FromContext(ctx).With("manifest", path)
	start := time.Now()
	rep := output.Report{Path: path}

	format, err := manifest.FormatFor(path)
	if err != nil {
		rep.Err = err
		return finish(rep, start)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		rep.Err = fmt.Errorf("reading manifest: %w", err)
		return finish(rep, start)
	}

	if scan {
		findings, err := manifest.NewSecretScanner().Scan(data)
		if err != nil {
			rep.Err = fmt.Errorf("secret scan: %w", err)
			return finish(rep, start)
		}
		rep.Secrets = findings
		if len(findings) > 0 {
			log.Warn("embedded secrets", "count", len(findings))
			if !allowSecrets {
				rep.Err = fmt.Errorf("%d embedded secret(s); move them to APPFORGE_SIGNING_* variables or pass --allow-secrets", len(findings))
				return finish(rep, start)
			}
		}
	}

	m, err := manifest.Decode(format, data)
	if err != nil {
		rep.Err = fmt.Errorf("decoding %s: %w", path, err)
		return finish(rep, start)
	}
	log.Debug("manifest decoded", "format", format, "keys", len(m))

	rep.Descriptor, rep.Err = r.Resolve(m)
	if rep.Err != nil {
		log.Debug("manifest rejected", "error", rep.Err)
	}
	return finish(rep, start)
}

func finish(rep output.Report, start time.Time) output.Report {
	rep.Elapsed = time.Since(start)
	return rep
}

// manifestPaths returns args, or the configured manifests when none are given.
func manifestPaths(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Manifests
}

func failedCount(reports []output.Report) int {
	n := 0
	for _, r := range reports {
		if r.Err != nil {
			n++
		}
	}
	return n
}
