// Package pkgmgr drives package-manager CLIs for the package install action.
package pkgmgr

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/rigup/internal/shell"
)

// CLI queries and installs packages with one package manager's command line.
type CLI struct {
	Manager string
	Log     zerolog.Logger
}

// New returns a CLI for manager.
func New(manager string, log zerolog.Logger) *CLI {
	return &CLI{Manager: manager, Log: log}
}

// Query reports whether id is installed. Managers without a query command
// always report false so the install step decides.
func (c *CLI) Query(ctx context.Context, id string) (bool, error) {
	args := checkArgs(c.Manager, id)
	if args == nil {
		return false, nil
	}
	c.Log.Debug().Str("command", args[0]).Strs("args", args[1:]).Msg("querying package")
	return shell.Exec(ctx, "", args[0], args[1:]...)
}

// Install installs id non-interactively, matching the identifier exactly and
// accepting license agreements where the manager supports it.
func (c *CLI) Install(ctx context.Context, id string) (bool, error) {
	args, err := installArgs(c.Manager, id)
	if err != nil {
		return false, err
	}
	c.Log.Debug().Str("command", args[0]).Strs("args", args[1:]).Msg("installing package")
	return shell.Exec(ctx, "", args[0], args[1:]...)
}

var managers = []string{
	"winget", "brew", "brew-cask", "choco", "scoop",
	"apt", "apt-get", "dnf", "yum", "pacman", "snap", "flatpak",
}

// Known reports whether manager is supported.
func Known(manager string) bool {
	return slices.Contains(managers, manager)
}

// Managers returns the supported manager names.
func Managers() []string {
	return slices.Clone(managers)
}

// installArgs returns the command + arguments needed to install pkg with the given manager.
func installArgs(manager, pkg string) ([]string, error) {
	switch manager {
	case "winget":
		return []string{"winget", "install", pkg, "--exact", "--silent", "--accept-package-agreements", "--accept-source-agreements", "--disable-interactivity"}, nil
	case "brew":
		return []string{"brew", "install", pkg}, nil
	case "brew-cask":
		return []string{"brew", "install", "--cask", pkg}, nil
	case "choco":
		return []string{"choco", "install", pkg, "--exact", "-y", "--no-progress"}, nil
	case "scoop":
		return []string{"scoop", "install", pkg}, nil
	case "apt", "apt-get":
		return []string{"sudo", "-n", "apt-get", "install", "-y", "-q", pkg}, nil
	case "dnf":
		return []string{"sudo", "-n", "dnf", "install", "-y", "-q", pkg}, nil
	case "yum":
		return []string{"sudo", "-n", "yum", "install", "-y", "-q", pkg}, nil
	case "pacman":
		return []string{"sudo", "-n", "pacman", "-S", "--noconfirm", "--needed", pkg}, nil
	case "snap":
		return []string{"sudo", "-n", "snap", "install", pkg}, nil
	case "flatpak":
		return []string{"flatpak", "install", "-y", "--noninteractive", pkg}, nil
	default:
		return nil, fmt.Errorf("unknown package manager: %q", manager)
	}
}

// checkArgs returns the command that exits 0 when pkg is already installed,
// or nil when the manager has no such query.
func checkArgs(manager, pkg string) []string {
	switch manager {
	case "winget":
		return []string{"winget", "list", "-q", pkg, "--exact", "--disable-interactivity"}
	case "brew":
		return []string{"brew", "list", "--formula", pkg}
	case "brew-cask":
		return []string{"brew", "list", "--cask", pkg}
	case "choco":
		return []string{"choco", "list", "--exact", "--limit-output", pkg}
	case "scoop":
		return []string{"scoop", "prefix", pkg}
	case "apt", "apt-get":
		return []string{"dpkg", "-s", pkg}
	case "dnf", "yum":
		return []string{"rpm", "-q", pkg}
	case "pacman":
		return []string{"pacman", "-Q", pkg}
	case "snap":
		return []string{"snap", "list", pkg}
	case "flatpak":
		return []string{"flatpak", "info", pkg}
	default:
		return nil
	}
}
