package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileDownload fetches URL into Dest.
//
// Idempotency: none. An existing Dest is a Failure and no request is made;
// the file is never overwritten.
type FileDownload struct {
	URL  string `yaml:"url"`
	Dest string `yaml:"dest"`
}

func (FileDownload) Kind() Kind { return KindFileDownload }
func (FileDownload) sealed()    {}

func (a FileDownload) Describe() string {
	return fmt.Sprintf("download %s -> %s", a.URL, a.Dest)
}

func (a FileDownload) Validate() error {
	var errs []error
	if a.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if a.Dest == "" {
		errs = append(errs, errors.New("dest is required"))
	}
	return errors.Join(errs...)
}

func (a FileDownload) Run(ctx context.Context, host *Host) Outcome {
	dest, err := host.Env.Resolve(a.Dest)
	if err != nil {
		return Fail(err.Error())
	}
	log := host.Log.With().Str("url", a.URL).Str("dest", dest).Logger()

	if _, err := os.Lstat(dest); err == nil {
		return Fail("target file already exists")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Fail(fmt.Sprintf("inspect destination: %v", err))
	}

	body, err := host.HTTP.Get(ctx, a.URL)
	if err != nil {
		log.Debug().Err(err).Msg("download failed")
		return Fail("error downloading file")
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		log.Debug().Err(err).Msg("create failed")
		return Fail("error creating file")
	}
	// A failed copy leaves the partial file in place.
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		log.Debug().Err(err).Msg("write failed")
		return Fail("error writing file")
	}
	if err := f.Close(); err != nil {
		return Fail("error writing file")
	}
	return Succeeded()
}
