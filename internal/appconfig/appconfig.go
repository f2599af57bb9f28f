// internal/appconfig/appconfig.go
// Package appconfig defines the configuration object shared by the propose and evaluate pipelines.
package appconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultInputPath is the proposer input used when none is configured.
	DefaultInputPath = "test set.json"
	// DefaultSolutionsDir holds proposer output files.
	DefaultSolutionsDir = "SOLUTIONS"
	// defaultRequestTimeout bounds every remote call.
	defaultRequestTimeout = 180 * time.Second
	// defaultConcurrency is the proposer worker count.
	defaultConcurrency = 10
	// defaultEvalConcurrency is the evaluator worker count.
	defaultEvalConcurrency = 20
	// defaultJudgeTemperature keeps judge replies near-deterministic.
	defaultJudgeTemperature = 0.1
	// DefaultMetricsAddr is where /metrics is served when metrics are on and no address is set.
	DefaultMetricsAddr = "127.0.0.1:9464"
)

// Config represents the top-level application configuration.
type Config struct {
	Generator       Host   `json:"generator" yaml:"generator" mapstructure:"generator"`
	Judge           Host   `json:"judge" yaml:"judge" mapstructure:"judge"`
	Concurrency     int    `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	EvalConcurrency int    `json:"evalConcurrency" yaml:"evalConcurrency" mapstructure:"evalConcurrency"`
	TimeoutSeconds  int    `json:"timeout,omitempty" yaml:"timeout" mapstructure:"timeout"`
	Input           string `json:"input" yaml:"input" mapstructure:"input"`
	SolutionsDir    string `json:"solutionsDir" yaml:"solutionsDir" mapstructure:"solutionsDir"`
	LogFile         string `json:"logFile,omitempty" yaml:"logFile" mapstructure:"logFile"`
	Debug           bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	ProgressBar     bool   `json:"progressBar" yaml:"progressBar" mapstructure:"progressBar"`
	Metrics         bool   `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	MetricsAddr     string `json:"metricsAddr,omitempty" yaml:"metricsAddr" mapstructure:"metricsAddr"`
	ConfigPath      string `json:"-" yaml:"-" mapstructure:"-"`
}

// Host represents one OpenAI-compatible chat completion endpoint.
type Host struct {
	Name       string     `json:"name" yaml:"name" mapstructure:"name"`
	URL        string     `json:"url" yaml:"url" mapstructure:"url"`
	APIKey     string     `json:"apiKey,omitempty" yaml:"apiKey" mapstructure:"apiKey"`
	Model      string     `json:"model" yaml:"model" mapstructure:"model"`
	Parameters Parameters `json:"parameters" yaml:"parameters" mapstructure:"parameters"`
}

// Parameters holds the sampling options forwarded with a request. Nil fields are omitted.
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" mapstructure:"top_p"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
	Seed        *int64   `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// RequestTimeout returns the per-request timeout, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Workers returns the proposer concurrency bound.
func (c Config) Workers() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// EvalWorkers returns the evaluator concurrency bound.
func (c Config) EvalWorkers() int {
	if c.EvalConcurrency <= 0 {
		return defaultEvalConcurrency
	}
	return c.EvalConcurrency
}

// InputPath returns the proposer input file.
func (c Config) InputPath() string {
	if p := strings.TrimSpace(c.Input); p != "" {
		return p
	}
	return DefaultInputPath
}

// SolutionsPath returns the directory holding proposer output.
func (c Config) SolutionsPath() string {
	if p := strings.TrimSpace(c.SolutionsDir); p != "" {
		return p
	}
	return DefaultSolutionsDir
}

// ProposalPath derives the proposer output file from the generator model name.
func (c Config) ProposalPath() string {
	name := fmt.Sprintf("proposed_solution_by_%s.jsonl", SanitizeFileName(c.Generator.Model))
	return filepath.Join(c.SolutionsPath(), name)
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "physbench.log"
}

// MetricsListenAddr returns the address to serve /metrics on, or "" when metrics are off.
func (c Config) MetricsListenAddr() string {
	if !c.Metrics {
		return ""
	}
	if addr := strings.TrimSpace(c.MetricsAddr); addr != "" {
		return addr
	}
	return DefaultMetricsAddr
}

// JudgeParameters returns the judge sampling options with the low default temperature applied.
func (c Config) JudgeParameters() Parameters {
	params := c.Judge.Parameters
	if params.Temperature == nil {
		t := defaultJudgeTemperature
		params.Temperature = &t
	}
	return params
}

// ValidateGenerator reports whether the generator endpoint is usable.
func (c Config) ValidateGenerator() error {
	return validateHost("generator", c.Generator)
}

// ValidateJudge reports whether the judge endpoint is usable.
func (c Config) ValidateJudge() error {
	return validateHost("judge", c.Judge)
}

func validateHost(role string, h Host) error {
	var missing []string
	if strings.TrimSpace(h.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(h.Model) == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s endpoint is missing %s", role, strings.Join(missing, ", "))
	}
	if !strings.HasPrefix(h.URL, "http://") && !strings.HasPrefix(h.URL, "https://") {
		return errors.New(role + " url must start with http:// or https://")
	}
	return nil
}

// Identifier returns a label for the host, preferring the name over the URL.
func (h Host) Identifier() string {
	if name := strings.TrimSpace(h.Name); name != "" {
		return name
	}
	if url := strings.TrimSpace(h.URL); url != "" {
		return url
	}
	return "unknown-host"
}

const forbiddenFileChars = "<>:\"/\\|?* "

// SanitizeFileName replaces characters that are unsafe in file names with underscores.
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenFileChars, r) {
			return '_'
		}
		return r
	}, name)
}
