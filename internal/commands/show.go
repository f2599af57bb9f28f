// internal/commands/show.go
package physbench

import (
	"github.com/k0kubun/pp"
	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// showCmd represents the 'show' command group for displaying resources.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display resources or information related to physbench.`,
}

// showConfigCmd implements 'show config', which prints the merged configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show the configuration after flags, environment variables, the config file and defaults are merged. Credentials are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			cfg = &appconfig.Config{}
		}
		out := cmd.OutOrStdout()
		if err := appconfig.ShowConfig(out, viper.ConfigFileUsed(), *cfg); err != nil {
			return err
		}
		if cfg.Debug {
			_, _ = pp.Fprintln(out, cfg.Redacted())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showConfigCmd)
}
