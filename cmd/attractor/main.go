// Package main implements the attractor CLI: tooling for describing,
// validating, and safely editing pipeline graph documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/steveyegge/attractor/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "attractor",
	Short: "Pipeline graph engine for multi-agent code-generation workflows",
	Long: `attractor describes, validates, and safely edits pipeline graph
documents: DOT-subset files that coordinate multi-stage, multi-agent
code-generation work.

The pipeline file is the sole source of truth. Mutations hold a
file-scoped lock, commit atomically, and append to the pipeline's
ops.jsonl audit log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	outputFormat string
	pipelineFile string
	configPath   string

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "Output format: text or json")
	rootCmd.PersistentFlags().StringVarP(&pipelineFile, "file", "f", "", "Pipeline file path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .attractor.yaml)")
}

// initConfig loads file/env configuration; flags that were left empty
// pick up the configured defaults.
func initConfig() {
	c, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg = c
	if outputFormat == "" {
		outputFormat = cfg.OutputFormat
	}
	if pipelineFile == "" {
		pipelineFile = cfg.PipelineFile
	}
	if err := validateOutputFormat(outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// validateOutputFormat checks the merged --output/config value; the flag
// bypasses config.Load's validation so it is re-checked here.
func validateOutputFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("--output: %q is invalid (valid values: text, json)", format)
	}
	return nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}
