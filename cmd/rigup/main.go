package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/atomikpanda/rigup/internal/actions"
	"github.com/atomikpanda/rigup/internal/ageutil"
	"github.com/atomikpanda/rigup/internal/color"
	"github.com/atomikpanda/rigup/internal/config"
	"github.com/atomikpanda/rigup/internal/fetch"
	"github.com/atomikpanda/rigup/internal/git"
	"github.com/atomikpanda/rigup/internal/logging"
	"github.com/atomikpanda/rigup/internal/pkgmgr"
	"github.com/atomikpanda/rigup/internal/platform"
	"github.com/atomikpanda/rigup/internal/runner"
	"github.com/atomikpanda/rigup/internal/shell"
	"github.com/atomikpanda/rigup/internal/tags"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configFile string
	identity   string
	verbose    int
	machine    tags.Store
}

func main() {
	color.Init()
	root := buildRoot()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	return newRoot(&options{machine: tags.DefaultStore()})
}

func newRoot(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "rigup",
		Short: "Provision a machine from a single declarative file",
		Long: `rigup installs packages, links dotfiles, downloads files, syncs GitHub
repositories and runs commands, in the order they are listed in one YAML or
TOML file, on Windows, macOS and Linux.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbose)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to config file (default: rigup.yaml, then the XDG config dir)")
	root.PersistentFlags().StringVar(&opts.identity, "identity", "", "age identity file for encrypted configs")
	root.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	root.AddCommand(
		applyCmd(opts),
		listCmd(opts),
		checkCmd(opts),
		platformCmd(),
		tagCmd(opts),
		encryptCmd(opts),
		decryptCmd(opts),
		versionCmd(),
	)

	return root
}

// loadSet resolves the config path (a positional argument wins over --config)
// and decodes it.
func (o *options) loadSet(args []string) (string, actions.Set, error) {
	explicit := o.configFile
	if len(args) > 0 {
		explicit = args[0]
	}
	path, err := config.Discover(explicit)
	if err != nil {
		return "", nil, err
	}
	set, err := config.Load(path, ageutil.FromEnv(o.identity))
	if err != nil {
		return "", nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return path, set, nil
}

func newHost(dryRun bool) (*actions.Host, error) {
	env, err := platform.Detect()
	if err != nil {
		return nil, err
	}
	log := logging.GetLogger("apply")
	pkgLog := logging.GetLogger("pkgmgr")
	return &actions.Host{
		Env: env,
		Packages: func(via string) actions.PackageManager {
			return pkgmgr.New(via, pkgLog)
		},
		Git:    &git.CLI{Log: logging.GetLogger("git")},
		HTTP:   fetch.New(version),
		Shell:  shell.Host{},
		Log:    log,
		DryRun: dryRun,
	}, nil
}

// --- apply -------------------------------------------------------------------

func applyCmd(opts *options) *cobra.Command {
	var (
		tagList string
		pick    bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "apply [config]",
		Short: "Run every action in the config, in order",
		Long: `Runs every action in file order. Actions are filtered by tag and platform;
a failing action is reported and the run carries on with the next one.

Active tags come from --tags, else from the interactive --select picker, else
from the machine's default tags (see "rigup tag"). With no active tags nothing
is filtered by tag. When tags are active, actions that declare no tags are
skipped.`,
		Example: `  rigup apply
  rigup apply setup.yaml --tags work,dev
  rigup apply --select
  rigup apply --dry-run -v`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, set, err := opts.loadSet(args)
			if err != nil {
				return err
			}

			var active []string
			switch {
			case cmd.Flags().Changed("tags"):
				active = tags.Split(tagList)
			case pick:
				if active, err = pickTags(set.Tags()); err != nil {
					return err
				}
			default:
				machine, err := opts.machine.Load()
				if err != nil {
					return err
				}
				active = machine.Tags
			}

			host, err := newHost(dryRun)
			if err != nil {
				return err
			}
			r := runner.New(set, host, active)
			r.Out = cmd.OutOrStdout()
			report := r.Run(ctx)
			if !report.OK() {
				return fmt.Errorf("%d action(s) failed", report.Count(actions.Failure))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tagList, "tags", "t", "", "comma-separated tags; only actions sharing one of them run")
	cmd.Flags().BoolVar(&pick, "select", false, "pick the active tags interactively")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print actions without executing them")
	return cmd
}

func pickTags(available []string) ([]string, error) {
	if len(available) == 0 {
		return nil, errors.New("the config declares no tags to select from")
	}
	var picked []string
	err := huh.NewMultiSelect[string]().
		Title("Tags to apply").
		Options(huh.NewOptions(available...)...).
		Value(&picked).
		Run()
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	return picked, nil
}

// --- list / check ------------------------------------------------------------

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [config]",
		Short: "List the actions in the config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, set, err := opts.loadSet(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, a := range set {
				fmt.Fprintf(out, "%3d  %-16s  %s\n", i+1, a.Handler.Kind(), a.Handler.Describe())
				if filter := describeFilter(a.Filter); filter != "" {
					fmt.Fprintf(out, "     %s\n", color.Dim(filter))
				}
			}
			return nil
		},
	}
}

func describeFilter(f actions.Filter) string {
	var parts []string
	if len(f.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(f.Tags, ", "))
	}
	if f.Platforms != nil {
		names := make([]string, len(f.Platforms))
		for i, p := range f.Platforms {
			names[i] = string(p)
		}
		parts = append(parts, "platforms: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [config]",
		Short: "Validate the config without running anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, set, err := opts.loadSet(args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d action(s) OK\n", path, len(set))
			return nil
		},
	}
}

// --- platform ----------------------------------------------------------------

func platformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the detected platform and home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := platform.Detect()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "os:   %s\nhome: %s\n", env.OS, env.Home)
			return nil
		},
	}
}

// --- tag ---------------------------------------------------------------------

func tagCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage the machine's default filter tags",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the machine's default tags",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.machine.Load()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "machine config: %s\n", opts.machine.Path)
				if len(cfg.Tags) == 0 {
					fmt.Fprintln(out, "(no tags)")
					return nil
				}
				for _, t := range cfg.Tags {
					fmt.Fprintf(out, "  - %s\n", t)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <tag>",
			Short: "Add a default tag to this machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.machine.Add(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added tag %q\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <tag>",
			Short: "Remove a default tag from this machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				removed, err := opts.machine.Remove(args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("tag %q is not set", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed tag %q\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

// --- encrypt / decrypt -------------------------------------------------------

func encryptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a config with the configured age key (writes <file>.age)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := opts.key()
			if err != nil {
				return err
			}
			src := args[0]
			dst := ageutil.EncryptedPath(src)
			fmt.Fprintf(cmd.OutOrStdout(), "encrypting %s -> %s\n", src, dst)
			return key.EncryptFile(src, dst)
		},
	}
}

func decryptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <file.age>",
		Short: "Decrypt an age-encrypted config (writes without the .age extension)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := opts.key()
			if err != nil {
				return err
			}
			src := args[0]
			if !ageutil.IsEncrypted(src) {
				return fmt.Errorf("%s does not end in .age", src)
			}
			dst := ageutil.PlainPath(src)
			fmt.Fprintf(cmd.OutOrStdout(), "decrypting %s -> %s\n", src, dst)
			return key.DecryptFile(src, dst)
		},
	}
}

func (o *options) key() (*ageutil.Key, error) {
	key := ageutil.FromEnv(o.identity)
	if key == nil {
		return nil, fmt.Errorf("no age key configured; pass --identity or set %s / %s",
			ageutil.EnvIdentity, ageutil.EnvPassphrase)
	}
	return key, nil
}

// --- version -----------------------------------------------------------------

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rigup version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rigup %s\n", version)
		},
	}
}
