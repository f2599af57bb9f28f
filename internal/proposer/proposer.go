// Package proposer asks the generator model to solve every pending problem and appends each
// solution to a resumable JSON Lines file.
package proposer

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/mwiater/physbench/internal/dataset"
	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/metrics"
	"github.com/mwiater/physbench/internal/pool"
	"github.com/mwiater/physbench/internal/progress"
	"github.com/mwiater/physbench/internal/providers"
	"github.com/mwiater/physbench/internal/resultlog"
)

const pipelineName = "propose"

// BuildSolvePrompt wraps a problem statement in the fixed solving instructions.
func BuildSolvePrompt(problem string) string {
	return "You are an expert on Physics. You solve problems step by step while maintaining logical consistency. " +
		"Solve the following Physics problem: " + problem + " " +
		"Finally, write the final answers in brief. Make sure you write all equations in LaTeX."
}

// Summary reports the counts of one proposer run.
type Summary struct {
	Output    string
	Total     int
	Completed int
	Pending   int
	Succeeded int
	Failed    int
}

// Runner drives one proposer run for the configured generator.
type Runner struct {
	cfg      *appconfig.Config
	provider providers.ChatProvider
	recorder *metrics.Recorder
	reporter progress.Reporter
	out      io.Writer
}

// NewRunner wires a Runner. recorder and reporter may be nil.
func NewRunner(cfg *appconfig.Config, provider providers.ChatProvider, recorder *metrics.Recorder, reporter progress.Reporter, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	if reporter == nil {
		reporter = progress.NewLines(out)
	}
	return &Runner{cfg: cfg, provider: provider, recorder: recorder, reporter: reporter, out: out}
}

// Run solves every input problem not already present in the output file. Failed problems are
// left out of the file so the next run picks them up again.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Output: r.cfg.ProposalPath()}

	items, err := dataset.LoadWorkItems(r.cfg.InputPath())
	if err != nil {
		return summary, err
	}
	completed, err := dataset.CompletedIDs(summary.Output)
	if err != nil {
		return summary, err
	}
	pending := dataset.Pending(dataset.Dedupe(items), completed)

	summary.Total = len(items)
	summary.Completed = len(completed)
	summary.Pending = len(pending)

	fmt.Fprintf(r.out, "Total: %d | Completed: %d | Pending: %d\n", summary.Total, summary.Completed, summary.Pending)
	fmt.Fprintf(r.out, "Concurrency: %d\n", r.cfg.Workers())
	logging.LogEvent("[PROPOSE] model=%s total=%d completed=%d pending=%d output=%s",
		r.cfg.Generator.Model, summary.Total, summary.Completed, summary.Pending, summary.Output)

	if len(pending) == 0 {
		fmt.Fprintln(r.out, color.GreenString("Nothing to do: every problem already has a solution."))
		return summary, nil
	}

	sink, err := resultlog.Open(summary.Output)
	if err != nil {
		return summary, err
	}
	defer sink.Close()

	solve := func(ctx context.Context, item dataset.WorkItem) (struct{}, error) {
		solution, err := r.solve(ctx, item)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, sink.Append(dataset.NewProposalRecord(item, solution))
	}

	r.reporter.Start(len(pending))
	for o := range pool.Map(ctx, pending, r.cfg.Workers(), solve) {
		r.reporter.Done(o.Seq, o.Item.ID.String(), o.Err)
		r.recorder.TaskFinished(pipelineName, o.Err)
		if o.Err != nil {
			summary.Failed++
			logging.LogEvent("[PROPOSE] %s failed (timeout=%t): %v", o.Item.ID, providers.IsDeadlineExceeded(o.Err), o.Err)
			continue
		}
		summary.Succeeded++
	}
	r.reporter.Finish()

	if summary.Failed > 0 {
		fmt.Fprintln(r.out, color.YellowString("\nFinished with %d failed problem(s). Run the command again to retry them.", summary.Failed))
	} else {
		fmt.Fprintln(r.out, color.GreenString("\nAll problems solved successfully."))
	}
	logging.LogEvent("[PROPOSE] done: succeeded=%d failed=%d output=%s", summary.Succeeded, summary.Failed, sink.Path())
	return summary, nil
}

func (r *Runner) solve(ctx context.Context, item dataset.WorkItem) (string, error) {
	completion, err := r.provider.Complete(ctx, providers.CompletionRequest{
		Host:       r.cfg.Generator,
		Messages:   providers.UserPrompt(BuildSolvePrompt(item.Problem)),
		Parameters: r.cfg.Generator.Parameters,
	})
	if err != nil {
		return "", err
	}
	logging.Debugf("[PROPOSE] %s: %s finished (%s) in %s, %d tokens",
		item.ID, completion.Model, completion.FinishReason, completion.Duration, completion.Usage.TotalTokens)
	return completion.Content, nil
}
