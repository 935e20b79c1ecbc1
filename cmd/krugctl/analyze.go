package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krug-analyzer/backend/internal/analyzer"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Analyze a website's usability",
		Long: `Analyze scrapes the URL, sends it to the configured AI provider and prints
the usability report. Flags override the saved settings for this run only.

Examples:
  krugctl analyze example.com
  krugctl analyze --depth deep --provider openai https://example.com
  krugctl analyze --json example.com > report.json`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("depth", "d", "", "Analysis depth: quick, standard or deep")
	cmd.Flags().StringP("provider", "p", "", "AI provider: claude or openai")
	cmd.Flags().Bool("no-mobile", false, "Exclude the mobile usability category")
	cmd.Flags().Bool("stealth", false, "Use stealth scraping")
	cmd.Flags().BoolP("json", "j", false, "Print the full report as JSON")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := a.Settings.Resolve(cmd.Context(), a.Defaults, nil)
	if err := applySettingsFlags(cmd, &settings); err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	res, err := a.Analyzer.Run(cmd.Context(), analyzer.Request{URL: args[0], Settings: settings}, func(e analyzer.ProgressEvent) {
		fmt.Fprintf(errOut, "[%d/%d] %s\n", e.Index, e.Total, e.Message)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report)
	}

	printReport(out, res.Report)
	if res.HistoryID != "" {
		fmt.Fprintf(out, "\nSaved to history as %s\n", res.HistoryID)
	}
	return nil
}

func applySettingsFlags(cmd *cobra.Command, s *models.Settings) error {
	if depth, _ := cmd.Flags().GetString("depth"); depth != "" {
		s.AnalysisDepth = models.AnalysisDepth(strings.ToLower(depth))
	}
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		s.AIProvider = models.AIProvider(strings.ToLower(provider))
	}
	if noMobile, _ := cmd.Flags().GetBool("no-mobile"); noMobile {
		s.IncludeMobile = false
	}
	if stealth, _ := cmd.Flags().GetBool("stealth"); stealth {
		s.StealthMode = true
	}
	return s.Validate()
}

func printReport(w io.Writer, r *models.AnalysisReport) {
	fmt.Fprintf(w, "%s\n", r.URL)
	fmt.Fprintf(w, "Overall score: %d/100 (%s)\n", r.OverallScore, models.LevelForScore(r.OverallScore))
	if r.UsedFallback {
		fmt.Fprintln(w, "Note: the AI provider was unavailable; this is a generic baseline report.")
	}
	fmt.Fprintf(w, "Issues: %d high, %d medium, %d low\n\n",
		r.Summary.HighCount, r.Summary.MediumCount, r.Summary.LowCount)

	for _, c := range r.Categories {
		fmt.Fprintf(w, "  %-26s %3d  (weight %d%%)\n", c.Name, c.Score, c.Weight)
	}

	if len(r.Summary.TopRecommendations) > 0 {
		fmt.Fprintln(w, "\nTop recommendations:")
		for i, rec := range r.Summary.TopRecommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
}
