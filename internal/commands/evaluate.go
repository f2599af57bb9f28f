// internal/commands/evaluate.go
package physbench

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/physbench/internal/evaluator"
	"github.com/mwiater/physbench/internal/progress"
	"github.com/mwiater/physbench/internal/providerfactory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// evaluateCmd implements 'evaluate [files...]', which grades proposer output with the judge model.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [files...]",
	Short: "Grade proposer output with the judge model",
	Long: `Sends every solution in the given JSON Lines files to the judge model, computes the PPS
composite score for each reply and writes evaluated_<name>.json next to each input file.
Without arguments every *.jsonl file in the solutions directory is evaluated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.ValidateJudge(); err != nil {
			return err
		}
		files, err := evaluator.ResolveInputs(cfg.SolutionsPath(), args)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		recorder, err := startMetrics(ctx, cfg)
		if err != nil {
			return err
		}
		provider, err := providerfactory.NewChatProvider(cfg, recorder)
		if err != nil {
			return err
		}
		defer provider.Close()

		out := cmd.OutOrStdout()
		var reporter progress.Reporter
		if cfg.ProgressBar {
			reporter = progress.NewBar(out, "evaluating")
		}
		summaries, err := evaluator.NewRunner(cfg, provider, recorder, reporter, out).RunFiles(ctx, files)

		label := color.New(color.FgHiCyan, color.Bold).Sprint("[EVALUATE]")
		for _, s := range summaries {
			if mean, ok := s.MeanPPS(); ok {
				fmt.Fprintf(out, "%s %s: %d succeeded, %d failed, mean PPS %.2f / 100\n", label, s.Input, s.Succeeded, s.Failed, mean)
			} else {
				fmt.Fprintf(out, "%s %s: %d succeeded, %d failed\n", label, s.Input, s.Succeeded, s.Failed)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("judgeURL", "", "judge endpoint base URL (env OPENAI_BASE_URL)")
	evaluateCmd.Flags().String("judgeModel", "", "judge model name")
	evaluateCmd.Flags().String("judgeKey", "", "judge API key (env OPENAI_API_KEY)")
	evaluateCmd.Flags().Int("concurrency", 0, "number of concurrent judge requests (default 20)")

	_ = viper.BindPFlag("judge.url", evaluateCmd.Flags().Lookup("judgeURL"))
	_ = viper.BindPFlag("judge.model", evaluateCmd.Flags().Lookup("judgeModel"))
	_ = viper.BindPFlag("judge.apiKey", evaluateCmd.Flags().Lookup("judgeKey"))
	_ = viper.BindPFlag("evalConcurrency", evaluateCmd.Flags().Lookup("concurrency"))
}
