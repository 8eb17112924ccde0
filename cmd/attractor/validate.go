package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/attractor/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a pipeline file",
	Long: `Validate a pipeline file against the schema rules. All rules run on
every invocation, so the full problem set comes back in one pass.

Exits 1 when any error-level issue exists; warnings alone exit 0.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		strict, _ := cmd.Flags().GetBool("strict")
		if !cmd.Flags().Changed("strict") {
			strict = cfg.Strict
		}

		path := pipelineFile
		if len(args) == 1 {
			path = args[0]
		}

		issues, err := schema.ValidateFile(path, strict)
		if err != nil {
			fail(err)
		}
		hasErrors := schema.HasErrors(issues)

		if jsonOutput() {
			if issues == nil {
				issues = []schema.Issue{}
			}
			outputJSON(map[string]interface{}{
				"success": true,
				"file":    path,
				"valid":   !hasErrors,
				"issues":  issues,
			})
			if hasErrors {
				os.Exit(1)
			}
			return
		}

		if len(issues) == 0 {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %s is valid\n", green("✓"), path)
			return
		}

		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		for _, issue := range issues {
			marker := yellow("⚠")
			if issue.Level == schema.LevelError {
				marker = red("✗")
			}
			fmt.Printf("%s %s\n", marker, issue)
		}
		if hasErrors {
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat a codergen node without a downstream gate as an error")
	rootCmd.AddCommand(validateCmd)
}
