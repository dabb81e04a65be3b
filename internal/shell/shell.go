// Package shell runs host processes and classifies how they ended: exited
// zero, exited non-zero, or could not be started at all.
package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
)

// Eval runs command through the host shell and returns true when it exits 0.
// A non-zero exit is not treated as a Go error; only execution failures are.
// Standard output is discarded.
func Eval(ctx context.Context, command string) (exitsZero bool, err error) {
	return run(shellCmd(ctx, command))
}

// Exec runs name with args in dir (the working directory when dir is empty)
// and reports the outcome the same way Eval does.
func Exec(ctx context.Context, dir, name string, args ...string) (exitsZero bool, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return run(cmd)
}

// Host is the process-backed implementation of the command-run collaborator.
type Host struct{}

// Run implements actions.Shell.
func (Host) Run(ctx context.Context, command string) (bool, error) {
	return Eval(ctx, command)
}

func run(cmd *exec.Cmd) (bool, error) {
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()
	if runErr == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return false, nil // non-zero exit is expected and not an error
	}
	return false, runErr // real execution failure (binary not found, etc.)
}

func shellCmd(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
