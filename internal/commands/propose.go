// internal/commands/propose.go
package physbench

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/physbench/internal/progress"
	"github.com/mwiater/physbench/internal/proposer"
	"github.com/mwiater/physbench/internal/providerfactory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// proposeCmd implements 'propose', which asks the generator model to solve every problem in the
// input file that has no solution yet.
var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Generate solutions for every pending problem",
	Long: `Reads the problem set, skips problems already present in the generator's output file and
asks the generator model for a solution to each remaining problem. Solutions are appended to
<solutionsDir>/proposed_solution_by_<model>.jsonl as they arrive, so an interrupted or partially
failed run is resumed by running the same command again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.ValidateGenerator(); err != nil {
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
		reporter := progress.New(out, cfg.ProgressBar, "proposing")
		summary, err := proposer.NewRunner(cfg, provider, recorder, reporter, out).Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %d succeeded, %d failed, output: %s\n",
			color.New(color.FgHiCyan, color.Bold).Sprint("[PROPOSE]"), summary.Succeeded, summary.Failed, summary.Output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(proposeCmd)

	proposeCmd.Flags().String("baseURL", "", "generator endpoint base URL, e.g. http://localhost:8000/v1")
	proposeCmd.Flags().String("model", "", "generator model name")
	proposeCmd.Flags().String("apiKey", "", "generator API key")
	proposeCmd.Flags().String("input", "", `problem set to solve (default "test set.json")`)
	proposeCmd.Flags().Int("concurrency", 0, "number of concurrent requests (default 10)")

	_ = viper.BindPFlag("generator.url", proposeCmd.Flags().Lookup("baseURL"))
	_ = viper.BindPFlag("generator.model", proposeCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("generator.apiKey", proposeCmd.Flags().Lookup("apiKey"))
	_ = viper.BindPFlag("input", proposeCmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("concurrency", proposeCmd.Flags().Lookup("concurrency"))
}
