// Package runner executes an action set once, in order, and reports the
// outcome of every entry.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/atomikpanda/rigup/internal/actions"
	"github.com/atomikpanda/rigup/internal/color"
)

// Runner applies an action set against a host.
type Runner struct {
	Set  actions.Set
	Host *actions.Host
	Tags []string // active filter tags; empty means no tag filtering
	Out  io.Writer
}

// New creates a Runner writing progress to stdout.
func New(set actions.Set, host *actions.Host, filterTags []string) *Runner {
	return &Runner{
		Set:  set,
		Host: host,
		Tags: filterTags,
		Out:  os.Stdout,
	}
}

// Result is the recorded outcome of one action.
type Result struct {
	Index       int
	Kind        actions.Kind
	Description string
	Outcome     actions.Outcome
}

// Report is everything a run produced.
type Report struct {
	RunID   string
	Results []Result
}

// Count returns how many actions ended with status s.
func (r Report) Count(s actions.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome.Status == s {
			n++
		}
	}
	return n
}

// OK reports whether no action failed.
func (r Report) OK() bool {
	return r.Count(actions.Failure) == 0
}

// Run visits every action exactly once in order. A failure never stops the
// run; it is recorded and the next action proceeds.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{RunID: uuid.NewString()}
	log := r.Host.Log.With().Str("run", report.RunID).Logger()
	host := *r.Host
	host.Log = log

	header := fmt.Sprintf("==> %d action(s) on %s", len(r.Set), host.Env.OS)
	if len(r.Tags) > 0 {
		header += ", tags: " + strings.Join(r.Tags, ", ")
	}
	fmt.Fprintln(r.Out, color.Bold(header))

	for i, a := range r.Set {
		res := Result{
			Index:       i + 1,
			Kind:        a.Handler.Kind(),
			Description: a.Handler.Describe(),
		}
		fmt.Fprintf(r.Out, "\n  -> %s\n", res.Description)

		actionLog := log.With().Int("index", res.Index).Str("kind", string(res.Kind)).Logger()
		host.Log = actionLog
		res.Outcome = a.Run(ctx, &host, r.Tags)

		fmt.Fprintf(r.Out, "     %s\n", render(res.Outcome))
		actionLog.Info().
			Str("outcome", res.Outcome.Status.String()).
			Str("reason", res.Outcome.Reason).
			Msg(res.Description)
		report.Results = append(report.Results, res)
	}

	fmt.Fprintf(r.Out, "\n%s\n", summary(report))
	return report
}

func render(o actions.Outcome) string {
	switch o.Status {
	case actions.Success:
		return color.Green("ok")
	case actions.Skipped:
		return color.Dim("skipped (" + o.Reason + ")")
	default:
		return color.BoldRed("failed: " + o.Reason)
	}
}

func summary(r Report) string {
	line := fmt.Sprintf("%d succeeded, %d skipped, %d failed",
		r.Count(actions.Success), r.Count(actions.Skipped), r.Count(actions.Failure))
	if r.OK() {
		return color.BoldGreen(line)
	}
	return color.BoldRed(line)
}
