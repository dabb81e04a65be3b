package actions

import (
	"context"
	"errors"
	"fmt"
)

// CommandRun executes an inline command line through the host shell with
// standard output discarded. There is no timeout and no retry.
//
// Idempotency: none; the command runs on every apply.
type CommandRun struct {
	Command string `yaml:"command"`
}

func (CommandRun) Kind() Kind { return KindCommandRun }
func (CommandRun) sealed()    {}

func (a CommandRun) Describe() string {
	return fmt.Sprintf("run %q", a.Command)
}

func (a CommandRun) Validate() error {
	if a.Command == "" {
		return errors.New("command is required")
	}
	return nil
}

func (a CommandRun) Run(ctx context.Context, host *Host) Outcome {
	ok, err := host.Shell.Run(ctx, a.Command)
	if err != nil {
		return Fail(err.Error())
	}
	if !ok {
		return Fail("failed to execute command for unknown reason")
	}
	return Succeeded()
}
