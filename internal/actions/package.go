package actions

import (
	"context"
	"errors"
	"fmt"
)

// DefaultManager is used when a package entry does not name one.
const DefaultManager = "winget"

// PackageInstall installs a package unless the manager already reports it.
//
// Idempotency: the manager is queried first; a hit short-circuits to Skipped
// and install is never invoked.
type PackageInstall struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
	Via  string `yaml:"via,omitempty"`
}

func (PackageInstall) Kind() Kind { return KindPackageInstall }
func (PackageInstall) sealed()    {}

// Manager returns the package manager name, defaulting to winget.
func (a PackageInstall) Manager() string {
	if a.Via == "" {
		return DefaultManager
	}
	return a.Via
}

func (a PackageInstall) Describe() string {
	return fmt.Sprintf("install package %q (%s) via %s", a.Name, a.ID, a.Manager())
}

func (a PackageInstall) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if a.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	return errors.Join(errs...)
}

func (a PackageInstall) Run(ctx context.Context, host *Host) Outcome {
	log := host.Log.With().Str("package", a.ID).Str("via", a.Manager()).Logger()
	pm := host.Packages(a.Manager())

	installed, err := pm.Query(ctx, a.ID)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("failed to query package, attempting install")
	case installed:
		return Skip("already installed")
	}

	log.Debug().Msg("installing package")
	ok, err := pm.Install(ctx, a.ID)
	if err != nil {
		return Fail(err.Error())
	}
	if !ok {
		return Fail("unknown error")
	}
	return Succeeded()
}
