// Package evaluator grades proposer output with a judge model and writes the scored results.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/mwiater/physbench/internal/dataset"
	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/metrics"
	"github.com/mwiater/physbench/internal/pool"
	"github.com/mwiater/physbench/internal/progress"
	"github.com/mwiater/physbench/internal/providers"
	"github.com/mwiater/physbench/internal/scoring"
)

const (
	pipelineName = "evaluate"
	// EvaluationField holds the judge object in each output record.
	EvaluationField = "gpt4_evaluation"
	// ScoreField is added to the judge object.
	ScoreField = "pps_score"
	// progressEvery controls how often progress is written to the log.
	progressEvery = 10
)

// ScoredItem is an evaluation input line together with the judge's verdict.
type ScoredItem struct {
	dataset.EvaluationItem
	Evaluation map[string]any `json:"gpt4_evaluation"`
}

// Score returns the composite stored on the item.
func (s ScoredItem) Score() float64 {
	if v, ok := s.Evaluation[ScoreField].(float64); ok {
		return v
	}
	return 0
}

// Summary describes one evaluated file.
type Summary struct {
	Input     string
	Output    string
	Total     int
	Succeeded int
	Failed    int
	Mean      scoring.Mean
}

// MeanPPS returns the average composite over successfully evaluated items.
func (s Summary) MeanPPS() (float64, bool) { return s.Mean.Average() }

// Runner evaluates proposer output files against the configured judge.
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
	return &Runner{cfg: cfg, provider: provider, recorder: recorder, reporter: reporter, out: out}
}

// OutputPath returns where the scored results for input are written.
func OutputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), "evaluated_"+stem+".json")
}

// ResolveInputs returns files when given, otherwise every *.jsonl file in dir.
func ResolveInputs(dir string, files []string) ([]string, error) {
	if len(files) > 0 {
		return files, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no *.jsonl files found in %s", dataset.ErrInput, dir)
	}
	return matches, nil
}

// RunFiles evaluates each file in turn. A file that cannot be read is reported and skipped.
func (r *Runner) RunFiles(ctx context.Context, files []string) ([]Summary, error) {
	var (
		summaries []Summary
		errs      []error
	)
	for _, path := range files {
		summary, err := r.Run(ctx, path)
		if err != nil {
			logging.LogEvent("[EVALUATE] %s: %v", path, err)
			errs = append(errs, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, errors.Join(errs...)
}

// Run evaluates one proposer output file and writes OutputPath(input).
func (r *Runner) Run(ctx context.Context, input string) (Summary, error) {
	summary := Summary{Input: input, Output: OutputPath(input)}

	loaded, err := dataset.LoadEvaluationItems(input)
	if err != nil {
		return summary, err
	}
	items := dataset.Dedupe(loaded)
	summary.Total = len(items)

	logging.LogEvent("[EVALUATE] starting %s (%d items, judge %s/%s)", filepath.Base(input), len(items), r.cfg.Judge.Identifier(), r.cfg.Judge.Model)
	fmt.Fprintf(r.out, "Evaluating %s: %d items\n", input, len(items))

	type indexed struct {
		index int
		item  ScoredItem
	}
	// Outcomes are consumed on this goroutine only, so results needs no lock.
	var results []indexed

	if r.reporter != nil {
		r.reporter.Start(len(items))
	}
	for o := range pool.Map(ctx, items, r.cfg.EvalWorkers(), r.evaluate) {
		if r.reporter != nil {
			r.reporter.Done(o.Seq, o.Item.ID.String(), o.Err)
		}
		r.recorder.TaskFinished(pipelineName, o.Err)
		if o.Err != nil {
			summary.Failed++
			logging.LogEvent("[EVALUATE] %s failed (timeout=%t): %v", o.Item.ID, providers.IsDeadlineExceeded(o.Err), o.Err)
		} else {
			results = append(results, indexed{index: o.Index, item: o.Value})
			summary.Succeeded++
			summary.Mean.Add(o.Value.Score())
			r.recorder.ObservePPS(o.Value.Score())
		}
		if o.Seq%progressEvery == 0 {
			logging.LogEvent("[EVALUATE] progress: %d/%d", o.Seq, len(items))
		}
	}
	if r.reporter != nil {
		r.reporter.Finish()
	}

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	scored := make([]ScoredItem, 0, len(results))
	for _, res := range results {
		scored = append(scored, res.item)
	}
	if err := writeResults(summary.Output, scored); err != nil {
		return summary, err
	}

	if mean, ok := summary.MeanPPS(); ok {
		logging.LogEvent("[EVALUATE] done: mean PPS for %s is %.2f / 100", filepath.Base(input), mean)
		fmt.Fprintf(r.out, "Mean PPS: %.2f / 100 (%d succeeded, %d failed)\n", mean, summary.Succeeded, summary.Failed)
	} else {
		fmt.Fprintf(r.out, "No items were scored (%d failed)\n", summary.Failed)
	}
	logging.LogEvent("[EVALUATE] results saved to %s", summary.Output)
	fmt.Fprintf(r.out, "Results saved to %s\n", summary.Output)
	return summary, nil
}

// evaluate grades one item. Only transport and reply-parsing problems fail the item; a reply
// that cannot be scored is kept with a zero composite.
func (r *Runner) evaluate(ctx context.Context, item dataset.EvaluationItem) (ScoredItem, error) {
	completion, err := r.provider.Complete(ctx, providers.CompletionRequest{
		Host:       r.cfg.Judge,
		Messages:   providers.UserPrompt(BuildJudgePrompt(item)),
		Parameters: r.cfg.JudgeParameters(),
		JSONMode:   true,
	})
	if err != nil {
		return ScoredItem{}, err
	}
	logging.Debugf("[EVALUATE] %s: judge %s finished (%s) in %s, %d tokens",
		item.ID, completion.Model, completion.FinishReason, completion.Duration, completion.Usage.TotalTokens)

	reply, err := ParseJudgeReply(completion.Content)
	if err != nil {
		return ScoredItem{}, err
	}
	for _, issue := range CheckJudgeReply(reply) {
		logging.LogEvent("[EVALUATE] %s: judge reply deviates from schema: %s", item.ID, issue)
	}

	score, err := scoring.ScoreReply(reply)
	if err != nil {
		logging.LogEvent("[EVALUATE] %s: %v; recording %s 0", item.ID, err, ScoreField)
		score = 0
	}
	reply[ScoreField] = score
	return ScoredItem{EvaluationItem: item, Evaluation: reply}, nil
}

// writeResults encodes items before touching path, so an encoding failure leaves any previous
// results file intact.
func writeResults(path string, items []ScoredItem) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
