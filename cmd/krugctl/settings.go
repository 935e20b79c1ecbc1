package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/utils"
)

// NewSettingsCmd creates the settings command and its subcommands.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved analysis settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings with API keys masked",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShow,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change saved settings; unspecified flags keep their current value",
		Args:  cobra.NoArgs,
		RunE:  runSettingsSet,
	}
	set.Flags().StringP("provider", "p", "", "AI provider: claude or openai")
	set.Flags().StringP("depth", "d", "", "Analysis depth: quick, standard or deep")
	set.Flags().Bool("mobile", true, "Include the mobile usability category")
	set.Flags().Bool("stealth", false, "Use stealth scraping")
	set.Flags().String("ai-key", "", "AI provider API key")
	set.Flags().String("scrape-key", "", "Scraping service API key")

	cmd.AddCommand(show, set)
	return cmd
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.Settings.Effective(cmd.Context(), a.Defaults)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), s)
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.Settings.Load(cmd.Context())
	if err != nil {
		return err
	}
	s := a.Defaults.Redacted()
	if current != nil {
		s = *current
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		v, _ := flags.GetString("provider")
		s.AIProvider = models.AIProvider(v)
	}
	if flags.Changed("depth") {
		v, _ := flags.GetString("depth")
		s.AnalysisDepth = models.AnalysisDepth(v)
	}
	if flags.Changed("mobile") {
		s.IncludeMobile, _ = flags.GetBool("mobile")
	}
	if flags.Changed("stealth") {
		s.StealthMode, _ = flags.GetBool("stealth")
	}
	if flags.Changed("ai-key") {
		s.AIAPIKey, _ = flags.GetString("ai-key")
	}
	if flags.Changed("scrape-key") {
		s.ScrapeAPIKey, _ = flags.GetString("scrape-key")
	}

	if err := a.Settings.Save(cmd.Context(), s); err != nil {
		return err
	}

	effective, err := a.Settings.Effective(cmd.Context(), a.Defaults)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), effective)
	return nil
}

func printSettings(w io.Writer, s models.Settings) {
	fmt.Fprintf(w, "aiProvider:     %s\n", s.AIProvider)
	fmt.Fprintf(w, "analysisDepth:  %s\n", s.AnalysisDepth)
	fmt.Fprintf(w, "includeMobile:  %t\n", s.IncludeMobile)
	fmt.Fprintf(w, "stealthMode:    %t\n", s.StealthMode)
	fmt.Fprintf(w, "aiApiKey:       %s\n", orNone(utils.MaskSecret(s.AIAPIKey)))
	fmt.Fprintf(w, "scrapeApiKey:   %s\n", orNone(utils.MaskSecret(s.ScrapeAPIKey)))
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
