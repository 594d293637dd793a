package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/pastpapers/config"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pastpapers",
		Short: "Download past-paper PDFs and scrape paper listings",
		Long: `pastpapers drives a headless browser through a list of paper pages,
finds the download link on each one and saves the PDF under a readable
name. It can also scrape a category listing page into JSON, CSV or
Markdown, or serve both workflows over HTTP.

Configuration comes from PASTPAPERS_* environment variables; flags
override them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json (default from PASTPAPERS_LOG_FORMAT)")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this size-rotated file")

	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the global logging flags.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}
	if f, _ := cmd.Flags().GetString("log-format"); f != "" {
		cfg.Log.Format = f
	}
	if f, _ := cmd.Flags().GetString("log-file"); f != "" {
		cfg.Log.File = f
	}
	return cfg
}
