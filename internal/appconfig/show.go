package appconfig

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShowConfig prints the effective configuration as YAML with credentials masked.
func ShowConfig(out io.Writer, file string, cfg Config) error {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	cfg = cfg.Redacted()
	cfg.Judge.Parameters = cfg.JudgeParameters()
	cfg.Concurrency = cfg.Workers()
	cfg.EvalConcurrency = cfg.EvalWorkers()
	cfg.TimeoutSeconds = int(cfg.RequestTimeout().Seconds())
	cfg.Input = cfg.InputPath()
	cfg.SolutionsDir = cfg.SolutionsPath()
	cfg.LogFile = cfg.LogFilePath()
	cfg.MetricsAddr = cfg.MetricsListenAddr()

	fmt.Fprintln(out, "Current configuration:")
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Redacted returns a copy of c with credentials masked.
func (c Config) Redacted() Config {
	c.Generator.APIKey = maskSecret(c.Generator.APIKey)
	c.Judge.APIKey = maskSecret(c.Judge.APIKey)
	return c
}

// maskSecret keeps the last four characters of a credential.
func maskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
