// Package git wraps the git command line for repository sync actions.
package git

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/rigup/internal/shell"
)

// Marker is the directory whose presence makes a directory a working copy.
const Marker = ".git"

// CLI runs git as a subprocess.
type CLI struct {
	Binary string // defaults to "git"
	Log    zerolog.Logger
}

func (c *CLI) binary() string {
	if c.Binary == "" {
		return "git"
	}
	return c.Binary
}

// Clone runs "git clone url" inside dir.
func (c *CLI) Clone(ctx context.Context, url, dir string) (bool, error) {
	c.Log.Debug().Str("url", url).Str("dir", dir).Msg("git clone")
	return shell.Exec(ctx, dir, c.binary(), "clone", "--quiet", url)
}

// Pull runs "git pull" inside dir.
func (c *CLI) Pull(ctx context.Context, dir string) (bool, error) {
	c.Log.Debug().Str("dir", dir).Msg("git pull")
	return shell.Exec(ctx, dir, c.binary(), "pull", "--quiet")
}

// IsRepository reports whether dir contains a .git entry. Worktrees and
// submodules use a .git file, so any entry type counts.
func (c *CLI) IsRepository(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, Marker))
	return err == nil
}
