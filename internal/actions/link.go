package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileLink places a symlink (or hard link) at Dest pointing to Src.
//
// An existing symlink at Dest is treated as a previous run's artifact and
// replaced. Anything else at Dest is renamed to "<name>.bak" first, so the
// original contents survive.
type FileLink struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest"`
	Hard bool   `yaml:"hard,omitempty"`
}

func (FileLink) Kind() Kind { return KindFileLink }
func (FileLink) sealed()    {}

func (a FileLink) Describe() string {
	if a.Hard {
		return fmt.Sprintf("hard link %s -> %s", a.Dest, a.Src)
	}
	return fmt.Sprintf("link %s -> %s", a.Dest, a.Src)
}

func (a FileLink) Validate() error {
	var errs []error
	if a.Src == "" {
		errs = append(errs, errors.New("src is required"))
	}
	if a.Dest == "" {
		errs = append(errs, errors.New("dest is required"))
	}
	return errors.Join(errs...)
}

func (a FileLink) Run(ctx context.Context, host *Host) Outcome {
	src, err := host.Env.Resolve(a.Src)
	if err != nil {
		return Fail(err.Error())
	}
	dest, err := host.Env.Resolve(a.Dest)
	if err != nil {
		return Fail(err.Error())
	}
	log := host.Log.With().Str("src", src).Str("dest", dest).Logger()

	if err := clearDestination(dest); err != nil {
		return Fail(err.Error())
	}

	if a.Hard {
		if err := os.Link(src, dest); err != nil {
			return Fail(fmt.Sprintf("create hard link: %v", err))
		}
		log.Debug().Msg("hard link created")
		return Succeeded()
	}
	if err := os.Symlink(src, dest); err != nil {
		return Fail(fmt.Sprintf("create symlink: %v", err))
	}
	log.Debug().Msg("symlink created")
	return Succeeded()
}

// BackupPath returns where an existing destination is moved before linking.
func BackupPath(dest string) string {
	return filepath.Join(filepath.Dir(dest), filepath.Base(dest)+".bak")
}

// clearDestination removes a symlink at dest or moves any other entry aside.
func clearDestination(dest string) error {
	info, err := os.Lstat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect destination: %w", err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("remove existing symlink: %w", err)
		}
		return nil
	}
	if err := os.Rename(dest, BackupPath(dest)); err != nil {
		return fmt.Errorf("back up existing destination: %w", err)
	}
	return nil
}
