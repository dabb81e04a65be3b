// Package actions defines the closed set of provisioning steps a config can
// declare and the tag/platform gate that sits in front of every one of them.
package actions

import (
	"context"
	"io"
	"slices"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/rigup/internal/platform"
)

// Kind is the configuration discriminant of a handler.
type Kind string

const (
	KindPackageInstall Kind = "package.install"
	KindFileLink       Kind = "file.link"
	KindFileDownload   Kind = "file.download"
	KindRepositorySync Kind = "github.repo"
	KindCommandRun     Kind = "command.run"
)

// Kinds lists every handler kind in documentation order.
var Kinds = []Kind{KindPackageInstall, KindFileLink, KindFileDownload, KindRepositorySync, KindCommandRun}

// Handler is the kind-specific part of an action. The set of implementations
// is closed: only the five types in this package satisfy it.
type Handler interface {
	// Kind returns the configuration discriminant.
	Kind() Kind
	// Describe returns a human-readable summary of the action.
	Describe() string
	// Validate reports missing or malformed fields.
	Validate() error
	// Run performs the action against the host and classifies the result.
	Run(ctx context.Context, host *Host) Outcome

	sealed()
}

// PackageManager is the subset of a package-manager CLI that installs use.
type PackageManager interface {
	// Query reports whether id is already installed.
	Query(ctx context.Context, id string) (bool, error)
	// Install installs id exactly, silently and without prompts. It returns
	// false with a nil error when the manager ran but reported failure.
	Install(ctx context.Context, id string) (bool, error)
}

// SourceControl is the subset of a git CLI that repository syncs use.
type SourceControl interface {
	Clone(ctx context.Context, url, dir string) (bool, error)
	Pull(ctx context.Context, dir string) (bool, error)
	IsRepository(dir string) bool
}

// Fetcher performs a blocking GET and returns the response body.
type Fetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Shell runs a command line through the host interpreter with stdout discarded.
type Shell interface {
	Run(ctx context.Context, command string) (bool, error)
}

// Host carries everything a handler may read from or do to the machine.
type Host struct {
	Env      platform.Env
	Packages func(via string) PackageManager
	Git      SourceControl
	HTTP     Fetcher
	Shell    Shell
	Log      zerolog.Logger
	DryRun   bool
}

// Filter gates an action on the active tag set and the host platform.
// A nil Platforms slice means the action runs everywhere.
type Filter struct {
	Tags      []string            `yaml:"tags,omitempty"`
	Platforms []platform.Platform `yaml:"platforms,omitempty"`
}

const (
	reasonNoTags      = "no matching tags"
	reasonNotPlatform = "not for this platform"
	reasonDryRun      = "dry run"
)

// Evaluate applies the gate. It returns the skip outcome and false when the
// action must not run, or a zero Outcome and true when it may proceed.
//
// An action that declares no tags is skipped whenever filterTags is non-empty.
func (f Filter) Evaluate(filterTags []string, current platform.Platform) (Outcome, bool) {
	if len(filterTags) > 0 && !slices.ContainsFunc(filterTags, func(t string) bool {
		return slices.Contains(f.Tags, t)
	}) {
		return Skip(reasonNoTags), false
	}
	if f.Platforms != nil && !slices.Contains(f.Platforms, current) {
		return Skip(reasonNotPlatform), false
	}
	return Outcome{}, true
}

// Action is one entry of a config: a filter wrapped around a handler.
type Action struct {
	Filter
	Handler Handler
}

// Run evaluates the filter and, when it passes, delegates to the handler.
func (a Action) Run(ctx context.Context, host *Host, filterTags []string) Outcome {
	if out, ok := a.Evaluate(filterTags, host.Env.OS); !ok {
		return out
	}
	if host.DryRun {
		host.Log.Info().Str("kind", string(a.Handler.Kind())).Msg("[dry-run] " + a.Handler.Describe())
		return Skip(reasonDryRun)
	}
	return a.Handler.Run(ctx, host)
}

// Set is the ordered list of actions decoded from one config document.
type Set []Action

// Tags returns every distinct tag declared in the set, in first-seen order.
func (s Set) Tags() []string {
	var tags []string
	for _, a := range s {
		for _, t := range a.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
