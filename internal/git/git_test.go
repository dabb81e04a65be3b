package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRepository(t *testing.T) {
	dir := t.TempDir()
	c := &CLI{}
	assert.False(t, c.IsRepository(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.True(t, c.IsRepository(dir))

	wt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: ../x"), 0o644))
	assert.True(t, c.IsRepository(wt), "a .git file marks a worktree")
}

func TestMissingBinaryIsInvocationError(t *testing.T) {
	c := &CLI{Binary: "git-binary-that-does-not-exist"}
	ok, err := c.Pull(context.Background(), t.TempDir())
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestCloneAndPullLocalRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	upstream := filepath.Join(t.TempDir(), "upstream")
	run := func(dir string, args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	require.NoError(t, os.MkdirAll(upstream, 0o755))
	run(upstream, "init", "--quiet")
	run(upstream, "commit", "--quiet", "--allow-empty", "-m", "init")

	dest := t.TempDir()
	c := &CLI{}
	ok, err := c.Clone(ctx, upstream, dest)
	require.NoError(t, err)
	require.True(t, ok)

	clone := filepath.Join(dest, "upstream")
	assert.True(t, c.IsRepository(clone))

	ok, err = c.Pull(ctx, clone)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCloneFailureIsExitStatus(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	c := &CLI{}
	ok, err := c.Clone(context.Background(), filepath.Join(t.TempDir(), "no-such-repo"), t.TempDir())
	assert.NoError(t, err)
	assert.False(t, ok)
}
