package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/krug-analyzer/backend/internal/app"
	"github.com/krug-analyzer/backend/pkg/config"
	"github.com/krug-analyzer/backend/pkg/logger"
)

// NewRootCmd creates the root command for krugctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "krugctl",
		Short: "Usability analysis based on Steve Krug's heuristics",
		Long: `krugctl scrapes a website, asks an AI provider to evaluate it against
Steve Krug's usability principles and prints a scored report.

Reports are kept in the local history database and can be exported as
Markdown, JSON, CSV or PDF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.Init(level, "console", "stderr")
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("ephemeral", false, "Keep history and settings in memory only")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSettingsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads configuration and wires the application for one command.
func openApp(cmd *cobra.Command) (*app.App, error) {
	ephemeral, err := cmd.Flags().GetBool("ephemeral")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return app.New(cmd.Context(), cfg, app.Options{Ephemeral: ephemeral})
}
