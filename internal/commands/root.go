// internal/commands/root.go
package physbench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. PHYSBENCH_JUDGE_MODEL.
const envPrefix = "PHYSBENCH"

var (
	cfgFile       string
	currentConfig *appconfig.Config
	runID         string
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// configDefaults registers every key with viper so environment overrides reach nested fields on
// Unmarshal. Zero values defer to the defaults resolved by appconfig.
var configDefaults = map[string]any{
	"generator.name": "", "generator.url": "", "generator.apiKey": "", "generator.model": "",
	"judge.name": "", "judge.url": "", "judge.apiKey": "", "judge.model": "",
	"concurrency": 0, "evalConcurrency": 0, "timeout": 0,
	"input": "", "solutionsDir": "", "logFile": "",
	"debug": false, "progressBar": false, "metrics": false, "metricsAddr": "",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "physbench",
	Short:        "physbench — generate and grade physics solutions with OpenAI-compatible models",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(cmd); err != nil {
			return err
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath(), currentConfig.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		runID = uuid.NewString()
		logging.SetRunID(runID)
		logging.Debugf("command=%q config=%q", cmd.CommandPath(), cfg.ConfigPath)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging, including request payloads")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file (default physbench.log)")
	rootCmd.PersistentFlags().Int("timeout", 0, "per-request timeout in seconds (default 180)")
	rootCmd.PersistentFlags().String("solutionsDir", "", "directory for proposer output (default SOLUTIONS)")
	rootCmd.PersistentFlags().Bool("progressBar", false, "render a progress bar instead of one line per item")
	rootCmd.PersistentFlags().Bool("metrics", false, "serve prometheus metrics while the command runs")
	rootCmd.PersistentFlags().String("metricsAddr", "", "listen address for /metrics (default 127.0.0.1:9464)")

	for _, name := range []string{"debug", "logFile", "timeout", "solutionsDir", "progressBar", "metrics", "metricsAddr"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// The judge also honours the variables the OpenAI SDKs read.
	_ = viper.BindEnv("judge.apiKey", envPrefix+"_JUDGE_APIKEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("judge.url", envPrefix+"_JUDGE_URL", "OPENAI_BASE_URL")
	for key, value := range configDefaults {
		viper.SetDefault(key, value)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file is only an error when --config was
// given explicitly.
func ensureConfigLoaded(cmd *cobra.Command) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// RunID returns the identifier attached to this invocation's log lines.
func RunID() string { return runID }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// startMetrics returns a recorder serving /metrics until ctx ends, or nil when metrics are off.
func startMetrics(ctx context.Context, cfg *appconfig.Config) (*metrics.Recorder, error) {
	addr := cfg.MetricsListenAddr()
	if addr == "" {
		return nil, nil
	}
	recorder := metrics.NewRecorder()
	if _, err := recorder.Serve(ctx, addr); err != nil {
		return nil, fmt.Errorf("start metrics server on %s: %w", addr, err)
	}
	return recorder, nil
}
