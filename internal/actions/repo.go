package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RepositorySync clones a GitHub repository into Dest, or pulls it when the
// clone is already there.
type RepositorySync struct {
	Repo string `yaml:"repo"` // owner/name
	Dest string `yaml:"dest"` // parent directory of the working copy
}

func (RepositorySync) Kind() Kind { return KindRepositorySync }
func (RepositorySync) sealed()    {}

func (a RepositorySync) Describe() string {
	return fmt.Sprintf("sync repo %s -> %s", a.Repo, a.Dest)
}

func (a RepositorySync) Validate() error {
	var errs []error
	owner, name, ok := strings.Cut(a.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		errs = append(errs, fmt.Errorf("repo %q must have the form owner/name", a.Repo))
	}
	if a.Dest == "" {
		errs = append(errs, errors.New("dest is required"))
	}
	return errors.Join(errs...)
}

// RemoteURL returns the canonical clone URL for the repository.
func (a RepositorySync) RemoteURL() string {
	return "https://github.com/" + a.Repo + ".git"
}

// target returns the working copy path: dest joined with the repo name.
func (a RepositorySync) target(dest string) string {
	segments := strings.Split(a.Repo, "/")
	return filepath.Join(dest, segments[len(segments)-1])
}

func (a RepositorySync) Run(ctx context.Context, host *Host) Outcome {
	dest, err := host.Env.Resolve(a.Dest)
	if err != nil {
		return Fail(err.Error())
	}
	target := a.target(dest)
	log := host.Log.With().Str("repo", a.Repo).Str("target", target).Logger()

	_, err = os.Stat(target)
	switch {
	case err == nil:
		if !host.Git.IsRepository(target) {
			return Fail("directory exists but isn't git repository")
		}
		log.Debug().Msg("repository exists, pulling")
		return gitOutcome(host.Git.Pull(ctx, target))
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("url", a.RemoteURL()).Msg("cloning repository")
		return gitOutcome(host.Git.Clone(ctx, a.RemoteURL(), dest))
	default:
		return Fail(fmt.Sprintf("inspect target: %v", err))
	}
}

func gitOutcome(ok bool, err error) Outcome {
	if err != nil {
		return Fail(err.Error())
	}
	if !ok {
		return Fail("unknown error")
	}
	return Succeeded()
}
