package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomikpanda/rigup/internal/actions"
	"github.com/atomikpanda/rigup/internal/config"
	"github.com/atomikpanda/rigup/internal/platform"
)

type recordingPackages struct {
	installed map[string]bool
	installs  []string
}

func (p *recordingPackages) Query(_ context.Context, id string) (bool, error) {
	return p.installed[id], nil
}

func (p *recordingPackages) Install(_ context.Context, id string) (bool, error) {
	p.installs = append(p.installs, id)
	return true, nil
}

type recordingShell struct {
	fail     map[string]bool
	commands []string
}

func (s *recordingShell) Run(_ context.Context, command string) (bool, error) {
	s.commands = append(s.commands, command)
	return !s.fail[command], nil
}

type nopGit struct{}

func (nopGit) Clone(context.Context, string, string) (bool, error) { return true, nil }
func (nopGit) Pull(context.Context, string) (bool, error)          { return true, nil }
func (nopGit) IsRepository(string) bool                            { return false }

type offlineHTTP struct{}

func (offlineHTTP) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("offline")
}

type fixture struct {
	host  *actions.Host
	pkgs  *recordingPackages
	shell *recordingShell
	out   *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		pkgs:  &recordingPackages{installed: map[string]bool{}},
		shell: &recordingShell{fail: map[string]bool{}},
		out:   &bytes.Buffer{},
	}
	f.host = &actions.Host{
		Env:      platform.Env{OS: platform.Linux, Home: t.TempDir()},
		Packages: func(string) actions.PackageManager { return f.pkgs },
		Git:      nopGit{},
		HTTP:     offlineHTTP{},
		Shell:    f.shell,
		Log:      zerolog.Nop(),
	}
	return f
}

func (f fixture) run(t *testing.T, doc string, filterTags []string) Report {
	t.Helper()
	set, err := config.Parse([]byte(doc), config.YAML)
	require.NoError(t, err)
	r := New(set, f.host, filterTags)
	r.Out = f.out
	return r.Run(context.Background())
}

func TestRunFilteredEndToEnd(t *testing.T) {
	f := newFixture(t)
	report := f.run(t, `
actions:
  - action: package.install
    name: x
    id: x
    tags: [a]
  - action: command.run
    command: echo hi
`, []string{"b"})

	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.Equal(t, actions.Skip("no matching tags"), res.Outcome)
	}
	assert.True(t, report.OK(), "skips must not fail the run")
	assert.Empty(t, f.pkgs.installs)
	assert.Empty(t, f.shell.commands)
}

func TestRunContinuesPastFailure(t *testing.T) {
	f := newFixture(t)
	f.shell.fail["false"] = true
	report := f.run(t, `
actions:
  - {action: command.run, command: "first"}
  - {action: command.run, command: "false"}
  - {action: file.download, url: "https://example.com/x", dest: "{home}/x"}
  - {action: command.run, command: "last"}
`, nil)

	require.Len(t, report.Results, 4)
	assert.Equal(t, actions.Succeeded(), report.Results[0].Outcome)
	assert.Equal(t, actions.Fail("failed to execute command for unknown reason"), report.Results[1].Outcome)
	assert.Equal(t, actions.Fail("error downloading file"), report.Results[2].Outcome)
	assert.Equal(t, actions.Succeeded(), report.Results[3].Outcome)
	assert.Equal(t, []string{"first", "false", "last"}, f.shell.commands, "every action visited in file order")

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Count(actions.Success))
	assert.Equal(t, 2, report.Count(actions.Failure))
	assert.Contains(t, f.out.String(), "2 succeeded, 0 skipped, 2 failed")
}

func TestRunLaterActionSeesEarlierSideEffect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}
	f := newFixture(t)
	home := f.host.Env.Home
	require.NoError(t, os.WriteFile(filepath.Join(home, "a"), []byte("a"), 0o644))

	report := f.run(t, `
actions:
  - {action: file.link, src: "{home}/a", dest: "{home}/b"}
  - {action: file.link, src: "{home}/b", dest: "{home}/c"}
`, nil)
	require.True(t, report.OK())

	data, err := os.ReadFile(filepath.Join(home, "c"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestRunPlatformAndIdempotency(t *testing.T) {
	f := newFixture(t)
	f.pkgs.installed["Git.Git"] = true
	report := f.run(t, `
actions:
  - {action: package.install, name: Git, id: Git.Git}
  - {action: package.install, name: Brew thing, id: jq, via: brew, platforms: [macos]}
  - {action: package.install, name: ripgrep, id: ripgrep, via: apt, platforms: [linux]}
`, nil)

	assert.Equal(t, actions.Skip("already installed"), report.Results[0].Outcome)
	assert.Equal(t, actions.Skip("not for this platform"), report.Results[1].Outcome)
	assert.Equal(t, actions.Succeeded(), report.Results[2].Outcome)
	assert.Equal(t, []string{"ripgrep"}, f.pkgs.installs)
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t)
	f.host.DryRun = true
	report := f.run(t, `
actions:
  - {action: command.run, command: "rm -rf /tmp/nothing"}
`, nil)
	assert.Equal(t, actions.Skip("dry run"), report.Results[0].Outcome)
	assert.Empty(t, f.shell.commands)
}

func TestRunOutput(t *testing.T) {
	f := newFixture(t)
	report := f.run(t, `
actions:
  - {action: command.run, command: "echo hi", tags: [dev]}
`, []string{"dev"})

	out := f.out.String()
	assert.Contains(t, out, "1 action(s) on linux, tags: dev")
	assert.Contains(t, out, `-> run "echo hi"`)
	assert.Contains(t, out, "ok")
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Results[0].Index)
	assert.Equal(t, actions.KindCommandRun, report.Results[0].Kind)
}
