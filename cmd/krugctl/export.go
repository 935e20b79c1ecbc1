package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krug-analyzer/backend/internal/export"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [history-id]",
		Short: "Export a saved analysis as a report or todo list",
		Long: `Export renders a saved analysis to a file.

Examples:
  # Markdown report in the current directory
  krugctl export 0192f0c4-...

  # Todo list as CSV, grouped by priority
  krugctl export --kind todo --format csv --group-by priority 0192f0c4-...

  # PDF report to stdout
  krugctl export --format pdf --output - 0192f0c4-... > report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("kind", "k", "report", "What to export: report or todo")
	cmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json, csv or pdf")
	cmd.Flags().StringP("group-by", "g", "category", "Todo grouping: category, priority or none")
	cmd.Flags().Bool("no-priority", false, "Omit priorities from todo lists")
	cmd.Flags().Bool("no-references", false, "Omit principle references from todo lists")
	cmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default: generated name)")

	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	formatFlag, _ := cmd.Flags().GetString("format")
	groupFlag, _ := cmd.Flags().GetString("group-by")
	noPriority, _ := cmd.Flags().GetBool("no-priority")
	noReferences, _ := cmd.Flags().GetBool("no-references")
	output, _ := cmd.Flags().GetString("output")

	kind, err := export.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	groupBy, err := export.ParseGroupBy(groupFlag)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.History.Find(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("history entry %s: %w", args[0], err)
	}
	if entry.FullReport == nil {
		return fmt.Errorf("history entry %s has no report", args[0])
	}

	artifact, err := export.Render(entry.FullReport, kind, format, export.TodoOptions{
		GroupBy:           groupBy,
		IncludePriority:   !noPriority,
		IncludeReferences: !noReferences,
	})
	if err != nil {
		return err
	}

	if output == "-" {
		_, err = cmd.OutOrStdout().Write(artifact.Data)
		return err
	}
	if output == "" {
		output = export.Filename(entry.FullReport, kind, format)
	}
	if err := os.WriteFile(output, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", output, len(artifact.Data))
	return nil
}
