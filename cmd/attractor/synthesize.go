package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/attractor/internal/synth"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Synthesize a pipeline from a task list",
	Long: `Synthesize a complete, schema-valid pipeline document from a PRD
reference and an optional task-descriptor YAML file.

Two or more tasks run in parallel between a fan-out and a join; a single
task wires straight through; no tasks yields an unassigned placeholder.
With --scaffold only the 5-stage skeleton is emitted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		prdRef, _ := cmd.Flags().GetString("prd")
		tasksPath, _ := cmd.Flags().GetString("tasks")
		label, _ := cmd.Flags().GetString("label")
		promiseID, _ := cmd.Flags().GetString("promise-id")
		targetDir, _ := cmd.Flags().GetString("target-dir")
		solutionDesign, _ := cmd.Flags().GetString("solution-design")
		scaffold, _ := cmd.Flags().GetBool("scaffold")
		outPath, _ := cmd.Flags().GetString("out")

		var tasks []synth.Task
		if tasksPath != "" {
			loaded, err := synth.LoadTasks(tasksPath)
			if err != nil {
				fail(err)
			}
			tasks = loaded
		}

		req := synth.Request{
			PRDRef:         prdRef,
			Tasks:          tasks,
			Label:          label,
			PromiseID:      promiseID,
			TargetDir:      targetDir,
			SolutionDesign: solutionDesign,
		}

		var content string
		if scaffold {
			content = synth.Scaffold(req)
		} else {
			content = synth.Synthesize(req)
		}

		if outPath == "" {
			fmt.Print(content)
			return
		}
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			fail(fmt.Errorf("write pipeline: %w", err))
		}

		if jsonOutput() {
			outputJSON(map[string]interface{}{
				"success": true,
				"file":    outPath,
				"tasks":   len(tasks),
			})
			return
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Wrote pipeline for %s (%d task(s)) to %s\n", green("✓"), prdRef, len(tasks), outPath)
	},
}

func init() {
	synthesizeCmd.Flags().String("prd", "", "PRD reference (required)")
	synthesizeCmd.Flags().String("tasks", "", "Task-descriptor YAML file")
	synthesizeCmd.Flags().String("label", "", "Pipeline label")
	synthesizeCmd.Flags().String("promise-id", "", "Promise id for acceptance-criteria tracking")
	synthesizeCmd.Flags().String("target-dir", "", "Target directory recorded in the pipeline")
	synthesizeCmd.Flags().String("solution-design", "", "Solution design reference")
	synthesizeCmd.Flags().Bool("scaffold", false, "Emit only the 5-stage skeleton")
	synthesizeCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	_ = synthesizeCmd.MarkFlagRequired("prd")
	rootCmd.AddCommand(synthesizeCmd)
}
