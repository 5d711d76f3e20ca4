// Package gitver derives inherited version values (versionName and
// versionCode) from a repository's tags and history.
package gitver

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sofmeright/appforge/src/buildenv"
)

// VersionInfo holds resolved version metadata from git.
type VersionInfo struct {
	Version    string // full version: "1.2.3", "1.2.3-rc.1", "1.2.3-dev+abc1234"
	Base       string // "1.2.3"
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
	SHA        string // short HEAD hash
	Branch     string
	Tag        string // nearest semver tag as written, "" if none
	Distance   int    // first-parent commits between HEAD and Tag
	Date       string // HEAD committer date, UTC, YYYY-MM-DD
	Commits    int    // first-parent commits reachable from HEAD
	IsRelease  bool   // HEAD is exactly at Tag
}

// Detect resolves version info for the repository containing rootDir.
//
// The nearest tag is the first semver tag met while walking first parents
// from HEAD; when one commit carries several, the highest wins. Commits
// counts the same walk, so it only grows as the mainline advances.
func Detect(rootDir string) (*VersionInfo, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	v := &VersionInfo{SHA: head.Hash().String()[:7]}
	if head.Name().IsBranch() {
		v.Branch = head.Name().Short()
	}

	tags, err := semverTags(repo)
	if err != nil {
		return nil, err
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading HEAD commit: %w", err)
	}

	v.Date = commitDate(commit)

	var nearest *semver.Version
	for {
		if nearest == nil {
			if t, ok := tags[commit.Hash]; ok {
				nearest = t.version
				v.Tag = t.name
				v.Distance = v.Commits
			}
		}
		v.Commits++

		if commit.NumParents() == 0 {
			break
		}
		commit, err = commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("walking history: %w", err)
		}
	}

	if nearest == nil {
		v.Base = "0.0.0"
		v.Version = fmt.Sprintf("0.0.0-dev+%s", v.SHA)
		return v, nil
	}

	v.Major, v.Minor, v.Patch = nearest.Major(), nearest.Minor(), nearest.Patch()
	v.Prerelease = nearest.Prerelease()
	v.Base = fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	v.Version = v.Base
	if v.Prerelease != "" {
		v.Version += "-" + v.Prerelease
	}
	v.IsRelease = v.Distance == 0
	if !v.IsRelease {
		v.Version = fmt.Sprintf("%s-dev+%s", v.Version, v.SHA)
	}
	return v, nil
}

// Apply fills the environment's unset version values: versionName from
// Version and versionCode from Commits.
func (v *VersionInfo) Apply(env *buildenv.Environment) {
	if env.VersionName == "" {
		env.VersionName = v.Version
	}
	if env.VersionCode == 0 {
		env.VersionCode = v.Commits
	}
}

type taggedVersion struct {
	name    string
	version *semver.Version
}

// semverTags maps commit hashes to the highest semver tag pointing at them.
// Annotated tags are peeled to their commit; non-semver tags are skipped.
func semverTags(repo *git.Repository) (map[plumbing.Hash]taggedVersion, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make(map[plumbing.Hash]taggedVersion)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		ver, err := semver.NewVersion(name)
		if err != nil {
			return nil
		}

		target := ref.Hash()
		tagObj, err := repo.TagObject(target)
		switch {
		case err == nil:
			c, err := tagObj.Commit()
			if err != nil {
				return nil
			}
			target = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}

		if cur, ok := out[target]; !ok || ver.GreaterThan(cur.version) {
			out[target] = taggedVersion{name: name, version: ver}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return out, nil
}

func commitDate(c *object.Commit) string {
	return c.Committer.When.UTC().Format("2006-01-02")
}
