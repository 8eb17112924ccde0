package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/attractor/internal/dot"
	"github.com/steveyegge/attractor/internal/mutate"
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Manage pipeline edges",
}

var edgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline edges",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		editor := newEditor(false)
		edges, err := editor.ListEdges()
		if err != nil {
			fail(err)
		}

		if jsonOutput() {
			out := make([]map[string]interface{}, 0, len(edges))
			for _, e := range edges {
				out = append(out, edgeJSON(e))
			}
			outputJSON(map[string]interface{}{
				"success": true,
				"file":    pipelineFile,
				"edges":   out,
			})
			return
		}

		if len(edges) == 0 {
			fmt.Println("No edges found")
			return
		}
		for _, e := range edges {
			fmt.Println(dot.FormatEdge(e))
		}
	},
}

var edgeAddCmd = &cobra.Command{
	Use:   "add <src> <dst>",
	Short: "Add an edge",
	Long: `Add an edge between two pipeline nodes.

The edge is rejected if it would create a cycle not guarded by a
condition=fail edge from a conditional node. Pass --allow-cycle to
override; self-loops are never allowed.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		label, _ := cmd.Flags().GetString("label")
		condition, _ := cmd.Flags().GetString("condition")
		sets, _ := cmd.Flags().GetStringArray("set")
		allowCycle, _ := cmd.Flags().GetBool("allow-cycle")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		extra, err := parseSetFlags(sets)
		if err != nil {
			fail(err)
		}

		editor := newEditor(dryRun)
		err = editor.AddEdge(args[0], args[1], mutate.AddOptions{
			Label:      label,
			Condition:  dot.Condition(condition),
			Extra:      extra,
			AllowCycle: allowCycle,
		})
		if err != nil {
			fail(err)
		}

		if jsonOutput() {
			outputJSON(map[string]interface{}{
				"success":   true,
				"action":    "added",
				"src":       args[0],
				"dst":       args[1],
				"label":     label,
				"condition": condition,
				"dry_run":   dryRun,
			})
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		if dryRun {
			fmt.Printf("%s Would add edge: %s -> %s (dry run)\n", green("✓"), args[0], args[1])
			return
		}
		fmt.Printf("%s Added edge: %s -> %s\n", green("✓"), args[0], args[1])
	},
}

var edgeRemoveCmd = &cobra.Command{
	Use:   "remove <src> <dst>",
	Short: "Remove matching edges",
	Long: `Remove every edge statement matching src -> dst, optionally narrowed
by --condition and/or --label. Removing zero edges is an error.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		condition, _ := cmd.Flags().GetString("condition")
		label, _ := cmd.Flags().GetString("label")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		editor := newEditor(dryRun)
		count, err := editor.RemoveEdge(args[0], args[1], condition, label)
		if err != nil {
			fail(err)
		}

		if jsonOutput() {
			outputJSON(map[string]interface{}{
				"success": true,
				"action":  "removed",
				"src":     args[0],
				"dst":     args[1],
				"count":   count,
				"dry_run": dryRun,
			})
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		if dryRun {
			fmt.Printf("%s Would remove %d edge(s): %s -> %s (dry run)\n", green("✓"), count, args[0], args[1])
			return
		}
		fmt.Printf("%s Removed %d edge(s): %s -> %s\n", green("✓"), count, args[0], args[1])
	},
}

// newEditor builds a mutate.Editor for the configured pipeline file.
func newEditor(dryRun bool) *mutate.Editor {
	editor := mutate.NewEditor(pipelineFile)
	editor.LockTimeout = cfg.LockTimeout
	editor.DryRun = dryRun
	return editor
}

// parseSetFlags turns repeated --set k=v flags into an attribute map.
func parseSetFlags(sets []string) (*dot.Attrs, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	attrs := dot.NewAttrs()
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", s)
		}
		attrs.Set(key, value)
	}
	return attrs, nil
}

func edgeJSON(e *dot.Edge) map[string]interface{} {
	attrs := make(map[string]string, e.Attrs.Len())
	for _, k := range e.Attrs.Keys() {
		attrs[k] = e.Attrs.Get(k)
	}
	return map[string]interface{}{
		"src":   e.Src,
		"dst":   e.Dst,
		"attrs": attrs,
	}
}

func init() {
	edgeAddCmd.Flags().String("label", "", "Edge label")
	edgeAddCmd.Flags().String("condition", "", "Edge condition (pass|fail|partial)")
	edgeAddCmd.Flags().StringArray("set", nil, "Extra attribute key=value (repeatable)")
	edgeAddCmd.Flags().Bool("allow-cycle", false, "Permit creating an unguarded cycle")
	edgeAddCmd.Flags().Bool("dry-run", false, "Validate without writing")

	edgeRemoveCmd.Flags().String("condition", "", "Only remove edges whose condition matches")
	edgeRemoveCmd.Flags().String("label", "", "Only remove edges whose label matches")
	edgeRemoveCmd.Flags().Bool("dry-run", false, "Validate without writing")

	edgeCmd.AddCommand(edgeListCmd)
	edgeCmd.AddCommand(edgeAddCmd)
	edgeCmd.AddCommand(edgeRemoveCmd)
	rootCmd.AddCommand(edgeCmd)
}
