package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/pastpapers/listing"
	"github.com/use-agent/pastpapers/models"
)

type scrapeOptions struct {
	url       string
	year      int
	paperType string
	json      string
	csv       string
	markdown  string
	quiet     bool
}

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	opts := &scrapeOptions{}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape paper records from a listing page",
		Long: `Fetch one category listing page, extract title, url, description and
image for every paper on it, optionally filter by year or type, and save
the records as JSON and CSV (and optionally Markdown).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Listing page URL (default from PASTPAPERS_LISTING_URL)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Keep only papers whose title contains this year")
	cmd.Flags().StringVar(&opts.paperType, "type", "", `Keep only papers whose title contains this text (e.g. "Marking Scheme")`)
	cmd.Flags().StringVar(&opts.json, "json", "past_papers.json", "JSON output file (empty to skip)")
	cmd.Flags().StringVar(&opts.csv, "csv", "past_papers.csv", "CSV output file (empty to skip)")
	cmd.Flags().StringVar(&opts.markdown, "markdown", "", "Markdown report file (empty to skip)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the papers")

	return cmd
}

func runScrape(cmd *cobra.Command, opts *scrapeOptions) error {
	cfg := loadConfig(cmd)
	logCloser := initLogger(cfg.Log)
	defer logCloser.Close()

	pageURL := strings.TrimSpace(opts.url)
	if pageURL == "" {
		pageURL = cfg.Listing.URL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Listing.Timeout)
	defer cancel()

	papers, err := listing.New(nil, cfg.Listing.UserAgent, cfg.Listing.Timeout).Fetch(ctx, pageURL)
	if err != nil {
		return err
	}
	papers = listing.Apply(papers, opts.year, opts.paperType)

	out := cmd.OutOrStdout()
	if !opts.quiet {
		printPapers(out, papers)
	}

	for _, path := range []string{opts.json, opts.csv, opts.markdown} {
		if path == "" {
			continue
		}
		if err := listing.Export(path, papers); err != nil {
			return err
		}
		if strings.HasSuffix(strings.ToLower(path), ".csv") && len(papers) == 0 {
			fmt.Fprintln(out, "No papers to save")
			continue
		}
		fmt.Fprintf(out, "Data saved to %s\n", path)
	}
	return nil
}

func printPapers(w io.Writer, papers []models.Paper) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "%s\nPAST PAPERS LIST (%d)\n%s\n", rule, len(papers), rule)
	for i, p := range papers {
		fmt.Fprintf(w, "\n%d. %s\n   URL: %s\n", i+1, p.Title, p.URL)
		if p.Description != "" {
			fmt.Fprintf(w, "   Description: %s\n", p.Description)
		}
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
}
