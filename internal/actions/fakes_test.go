package actions

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atomikpanda/rigup/internal/platform"
)

type fakePackages struct {
	installed  map[string]bool
	queryErr   error
	installOK  bool
	installErr error

	queried  []string
	installs []string
	managers []string
}

func (f *fakePackages) Query(_ context.Context, id string) (bool, error) {
	f.queried = append(f.queried, id)
	return f.installed[id], f.queryErr
}

func (f *fakePackages) Install(_ context.Context, id string) (bool, error) {
	f.installs = append(f.installs, id)
	return f.installOK, f.installErr
}

type gitCall struct {
	op  string
	arg string
	dir string
}

type fakeGit struct {
	ok    bool
	err   error
	calls []gitCall
}

func (f *fakeGit) Clone(_ context.Context, url, dir string) (bool, error) {
	f.calls = append(f.calls, gitCall{op: "clone", arg: url, dir: dir})
	return f.ok, f.err
}

func (f *fakeGit) Pull(_ context.Context, dir string) (bool, error) {
	f.calls = append(f.calls, gitCall{op: "pull", dir: dir})
	return f.ok, f.err
}

func (f *fakeGit) IsRepository(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

type fakeHTTP struct {
	body     string
	err      error
	failRead bool
	requests []string
}

type failingReader struct{ data io.Reader }

func (r *failingReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if err == io.EOF {
		return n, errors.New("connection reset")
	}
	return n, err
}

func (f *fakeHTTP) Get(_ context.Context, url string) (io.ReadCloser, error) {
	f.requests = append(f.requests, url)
	if f.err != nil {
		return nil, f.err
	}
	if f.failRead {
		return io.NopCloser(&failingReader{data: strings.NewReader(f.body)}), nil
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type fakeShell struct {
	ok       bool
	err      error
	commands []string
}

func (f *fakeShell) Run(_ context.Context, command string) (bool, error) {
	f.commands = append(f.commands, command)
	return f.ok, f.err
}

type testHost struct {
	*Host
	pkgs  *fakePackages
	git   *fakeGit
	http  *fakeHTTP
	shell *fakeShell
}

func newTestHost(t *testing.T) testHost {
	t.Helper()
	th := testHost{
		pkgs:  &fakePackages{installed: map[string]bool{}, installOK: true},
		git:   &fakeGit{ok: true},
		http:  &fakeHTTP{body: "payload"},
		shell: &fakeShell{ok: true},
	}
	th.Host = &Host{
		Env: platform.Env{OS: platform.Linux, Home: t.TempDir()},
		Packages: func(via string) PackageManager {
			th.pkgs.managers = append(th.pkgs.managers, via)
			return th.pkgs
		},
		Git:   th.git,
		HTTP:  th.http,
		Shell: th.shell,
		Log:   zerolog.Nop(),
	}
	return th
}
